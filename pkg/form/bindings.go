package form

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-instructform/pkg/address"
)

// Bind sets the field at path from its textual form. It is used at the
// boundaries that only see strings (terminal prompts, multipart posts) and
// keeps the mapping from registry path to typed setter in one place.
//
// Unknown paths return an error; attachments, signature strokes and
// location picks have their own setters.
func (s *State) Bind(path, raw string) error {
	if group, part, ok := strings.Cut(path, "."); ok {
		if !addressPart(part) {
			return fmt.Errorf("form: unknown field %q", path)
		}
		switch group {
		case "clientAddress":
			return s.UpdateClient(func(c *Client) { setAddressPart(&c.Address, part, raw) })
		case "siteAddress":
			return s.UpdateProperty(func(p *Property) { setAddressPart(&p.SiteAddress, part, raw) })
		case "invoicingAddress":
			return s.UpdateInvoicing(func(i *Invoicing) { setAddressPart(&i.Address, part, raw) })
		}
		return fmt.Errorf("form: unknown field %q", path)
	}

	switch path {
	case "firstName":
		return s.UpdateClient(func(c *Client) { c.FirstName = raw })
	case "lastName":
		return s.UpdateClient(func(c *Client) { c.LastName = raw })
	case "companyName":
		return s.UpdateClient(func(c *Client) { c.CompanyName = raw })
	case "email":
		return s.UpdateClient(func(c *Client) { c.Email = raw })
	case "phone":
		return s.UpdateClient(func(c *Client) { c.Phone = raw })

	case "propertyType":
		return s.UpdateProperty(func(p *Property) { p.Type = raw })
	case "propertyTypeOther":
		return s.UpdateProperty(func(p *Property) { p.TypeOther = raw })
	case "sitePlanAvailable":
		return s.bindBool(path, raw, func(v bool) error {
			return s.UpdateProperty(func(p *Property) { p.SitePlanAvailable = v })
		})
	case "occupantCount":
		return s.UpdateProperty(func(p *Property) { p.OccupantCount = raw })
	case "vehicleCount":
		return s.UpdateProperty(func(p *Property) { p.VehicleCount = raw })
	case "dogsOnSite":
		return s.bindBool(path, raw, func(v bool) error {
			return s.UpdateProperty(func(p *Property) { p.DogsOnSite = v })
		})
	case "requiredDate":
		return s.UpdateProperty(func(p *Property) { p.RequiredDate = raw })
	case "accessNotes":
		return s.UpdateProperty(func(p *Property) { p.AccessNotes = raw })

	case "authorityRole":
		return s.UpdateAuthority(func(a *Authority) { a.Role = raw })
	case "hasLandRegistry":
		return s.bindBool(path, raw, func(v bool) error {
			return s.UpdateAuthority(func(a *Authority) { a.HasLandRegistry = v })
		})
	case "hasLease":
		return s.bindBool(path, raw, func(v bool) error {
			return s.UpdateAuthority(func(a *Authority) { a.HasLease = v })
		})
	case "hasManagementContract":
		return s.bindBool(path, raw, func(v bool) error {
			return s.UpdateAuthority(func(a *Authority) { a.HasManagementContract = v })
		})

	case "invoicingSameAsClient":
		return s.bindBool(path, raw, func(v bool) error {
			return s.UpdateInvoicing(func(i *Invoicing) { i.SameAsClient = v })
		})
	case "invoiceEmail":
		return s.UpdateInvoicing(func(i *Invoicing) { i.Email = raw })
	case "poNumber":
		return s.UpdateInvoicing(func(i *Invoicing) { i.PONumber = raw })

	case "notes":
		return s.SetNotes(raw)
	case "acceptTerms":
		return s.bindBool(path, raw, s.SetTermsAccepted)
	case "signatureDataUrl":
		return s.SetSignature(raw)
	}
	return fmt.Errorf("form: unknown field %q", path)
}

// BindAll applies every entry of values in path order and stops at the
// first error. Entries sorting before the failing path are applied.
func (s *State) BindAll(values map[string]string) error {
	paths := make([]string, 0, len(values))
	for path := range values {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := s.Bind(path, values[path]); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) bindBool(path, raw string, set func(bool) error) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return set(false)
	}
	switch strings.ToLower(raw) {
	case "on", "yes", "y":
		return set(true)
	case "off", "no", "n":
		return set(false)
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("form: %s: %q is not a boolean", path, raw)
	}
	return set(v)
}

func addressPart(part string) bool {
	switch part {
	case "line1", "line2", "city", "region", "postcode", "country":
		return true
	}
	return false
}

func setAddressPart(a *address.Address, part, raw string) {
	switch part {
	case "line1":
		a.Line1 = raw
	case "line2":
		a.Line2 = raw
	case "city":
		a.City = raw
	case "region":
		a.Region = raw
	case "postcode":
		a.Postcode = raw
	case "country":
		a.Country = raw
	}
}
