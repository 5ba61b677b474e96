package form

import (
	"strings"

	"github.com/goliatone/go-instructform/pkg/address"
)

// Client is the instructing party.
type Client struct {
	FirstName   string          `json:"firstName" yaml:"firstName"`
	LastName    string          `json:"lastName" yaml:"lastName"`
	CompanyName string          `json:"companyName,omitempty" yaml:"companyName,omitempty"`
	Email       string          `json:"email" yaml:"email"`
	Phone       string          `json:"phone" yaml:"phone"`
	Address     address.Address `json:"clientAddress" yaml:"clientAddress"`
}

// FullName joins the trimmed first and last name with a single space.
func (c Client) FullName() string {
	return strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName)
}

// Property describes the site being attended. Counts are kept as entered and
// parsed when the payload is built.
type Property struct {
	SiteAddress       address.Address `json:"siteAddress" yaml:"siteAddress"`
	Type              string          `json:"propertyType" yaml:"propertyType"`
	TypeOther         string          `json:"propertyTypeOther,omitempty" yaml:"propertyTypeOther,omitempty"`
	SitePlanAvailable bool            `json:"sitePlanAvailable" yaml:"sitePlanAvailable"`
	OccupantCount     string          `json:"occupantCount,omitempty" yaml:"occupantCount,omitempty"`
	VehicleCount      string          `json:"vehicleCount,omitempty" yaml:"vehicleCount,omitempty"`
	DogsOnSite        bool            `json:"dogsOnSite" yaml:"dogsOnSite"`
	RequiredDate      string          `json:"requiredDate,omitempty" yaml:"requiredDate,omitempty"`
	AccessNotes       string          `json:"accessNotes,omitempty" yaml:"accessNotes,omitempty"`
}

// Authority records who is instructing and which supporting documents they
// hold.
type Authority struct {
	Role                  string `json:"authorityRole" yaml:"authorityRole"`
	HasLandRegistry       bool   `json:"hasLandRegistry" yaml:"hasLandRegistry"`
	HasLease              bool   `json:"hasLease" yaml:"hasLease"`
	HasManagementContract bool   `json:"hasManagementContract" yaml:"hasManagementContract"`
}

// Representative reports whether the role is anything other than owner.
func (a Authority) Representative() bool {
	return a.Role != "" && a.Role != "owner"
}

// SupportingDocuments lists the ticked documents in a stable order.
func (a Authority) SupportingDocuments() []string {
	docs := make([]string, 0, 3)
	if a.HasLandRegistry {
		docs = append(docs, "land_registry")
	}
	if a.HasLease {
		docs = append(docs, "lease")
	}
	if a.HasManagementContract {
		docs = append(docs, "management_contract")
	}
	return docs
}

// Invoicing holds billing details.
type Invoicing struct {
	SameAsClient bool            `json:"invoicingSameAsClient" yaml:"invoicingSameAsClient"`
	Address      address.Address `json:"invoicingAddress" yaml:"invoicingAddress"`
	Email        string          `json:"invoiceEmail,omitempty" yaml:"invoiceEmail,omitempty"`
	PONumber     string          `json:"poNumber,omitempty" yaml:"poNumber,omitempty"`
}

// Terms holds the declaration checkbox.
type Terms struct {
	Accepted bool `json:"acceptTerms" yaml:"acceptTerms"`
}
