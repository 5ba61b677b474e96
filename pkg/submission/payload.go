package submission

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-instructform/pkg/address"
	"github.com/goliatone/go-instructform/pkg/attachments"
	"github.com/goliatone/go-instructform/pkg/form"
)

// Payload is the denormalised instruction handed to a Submitter. Attachments
// are passed by reference and are not part of the JSON encoding; their names
// are.
type Payload struct {
	SubmissionID string    `json:"submission_id"`
	SubmittedAt  time.Time `json:"submitted_at"`

	ClientName    string          `json:"client_name"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	CompanyName   string          `json:"company_name,omitempty"`
	ClientEmail   string          `json:"client_email"`
	ClientPhone   string          `json:"client_phone"`
	ClientAddress address.Address `json:"client_address"`

	PropertyAddress   string          `json:"property_address"`
	SiteAddress       address.Address `json:"site_address"`
	PropertyType      string          `json:"property_type"`
	PropertyTypeOther string          `json:"property_type_other,omitempty"`
	SitePlanAvailable bool            `json:"site_plan_available"`
	Occupants         *int            `json:"occupants,omitempty"`
	Vehicles          *int            `json:"vehicles,omitempty"`
	DogsOnSite        bool            `json:"dogs_on_site"`
	RequiredDate      string          `json:"required_date,omitempty"`
	AccessNotes       string          `json:"access_notes,omitempty"`

	AuthorityRole       string   `json:"authority_role"`
	SupportingDocuments []string `json:"supporting_documents"`

	InvoicingSameAsClient bool            `json:"invoicing_same_as_client"`
	InvoicingAddress      address.Address `json:"invoicing_address"`
	InvoiceEmail          string          `json:"invoice_email"`
	PONumber              string          `json:"po_number,omitempty"`

	AcceptTerms      bool   `json:"accept_terms"`
	SignatureDataURL string `json:"signature_data_url"`
	Notes            string `json:"notes,omitempty"`

	Attachments     []attachments.FileHandle `json:"-"`
	AttachmentNames []string                 `json:"attachment_names"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	MapsLink  string   `json:"maps_link,omitempty"`
}

// Values returns the JSON view of the payload as generic values, the shape
// used for contract checks and multipart encoding.
func (p Payload) Values() (map[string]any, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("submission: encode payload: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("submission: decode payload: %w", err)
	}
	return out, nil
}

// Denormalizer builds payloads from form state.
type Denormalizer struct {
	sanitizer *bluemonday.Policy
	now       func() time.Time
	newID     func() string
}

// NewDenormalizer returns a Denormalizer. Nil arguments fall back to a
// strict sanitizer, time.Now and random UUIDs.
func NewDenormalizer(sanitizer *bluemonday.Policy, now func() time.Time, newID func() string) Denormalizer {
	if sanitizer == nil {
		sanitizer = bluemonday.StrictPolicy()
	}
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return Denormalizer{sanitizer: sanitizer, now: now, newID: newID}
}

// Denormalize flattens the form into a Payload. The form is expected to have
// passed validation; numbers that still fail to parse are reported as errors.
func (d Denormalizer) Denormalize(state *form.State) (Payload, error) {
	client := state.Client()
	property := state.Property()
	authority := state.Authority()
	invoicing := state.Invoicing()
	list := state.Attachments()

	occupants, err := parseCount("occupantCount", property.OccupantCount)
	if err != nil {
		return Payload{}, err
	}
	vehicles, err := parseCount("vehicleCount", property.VehicleCount)
	if err != nil {
		return Payload{}, err
	}

	invoiceAddress := invoicing.Address.Normalize()
	if invoicing.SameAsClient {
		invoiceAddress = client.Address.Normalize()
	}
	invoiceEmail := strings.TrimSpace(invoicing.Email)
	if invoiceEmail == "" {
		invoiceEmail = strings.TrimSpace(client.Email)
	}

	p := Payload{
		SubmissionID: d.newID(),
		SubmittedAt:  d.now().UTC(),

		ClientName:    client.FullName(),
		FirstName:     strings.TrimSpace(client.FirstName),
		LastName:      strings.TrimSpace(client.LastName),
		CompanyName:   strings.TrimSpace(client.CompanyName),
		ClientEmail:   strings.TrimSpace(client.Email),
		ClientPhone:   strings.TrimSpace(client.Phone),
		ClientAddress: client.Address.Normalize(),

		PropertyAddress:   property.SiteAddress.Compose(),
		SiteAddress:       property.SiteAddress.Normalize(),
		PropertyType:      property.Type,
		SitePlanAvailable: property.SitePlanAvailable,
		Occupants:         occupants,
		Vehicles:          vehicles,
		DogsOnSite:        property.DogsOnSite,
		RequiredDate:      strings.TrimSpace(property.RequiredDate),
		AccessNotes:       d.sanitize(property.AccessNotes),

		AuthorityRole:       authority.Role,
		SupportingDocuments: []string{},

		InvoicingSameAsClient: invoicing.SameAsClient,
		InvoicingAddress:      invoiceAddress,
		InvoiceEmail:          invoiceEmail,
		PONumber:              strings.TrimSpace(invoicing.PONumber),

		AcceptTerms:      state.Terms().Accepted,
		SignatureDataURL: state.Signature(),
		Notes:            d.sanitize(state.Notes()),

		Attachments:     list.Items(),
		AttachmentNames: list.Names(),
	}
	if p.AttachmentNames == nil {
		p.AttachmentNames = []string{}
	}
	if property.Type == "other" {
		p.PropertyTypeOther = strings.TrimSpace(property.TypeOther)
	}
	if authority.Representative() {
		p.SupportingDocuments = authority.SupportingDocuments()
	}
	if loc, ok := state.Location(); ok {
		lat, lng := loc.Lat, loc.Lng
		p.Latitude = &lat
		p.Longitude = &lng
		p.MapsLink = loc.MapsLink
	}
	return p, nil
}

func (d Denormalizer) sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || d.sanitizer == nil {
		return s
	}
	return strings.TrimSpace(d.sanitizer.Sanitize(s))
}

func parseCount(key, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) {
		return nil, fmt.Errorf("submission: %s: %q is not a count", key, raw)
	}
	n := int(math.Round(f))
	return &n, nil
}
