// Package address holds the six-field postal address reused for the client,
// site and invoicing sections of an instruction.
package address

import (
	"strings"

	"github.com/goliatone/go-instructform/pkg/model"
)

// Countries lists the accepted values of the country field.
var Countries = []string{
	"United Kingdom",
	"Ireland",
	"Isle of Man",
	"Jersey",
	"Guernsey",
}

// Address is a postal address. Line1, City, Postcode and Country are
// required; Line2 and Region are optional.
type Address struct {
	Line1    string `json:"line1" yaml:"line1"`
	Line2    string `json:"line2,omitempty" yaml:"line2,omitempty"`
	City     string `json:"city" yaml:"city"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
	Postcode string `json:"postcode" yaml:"postcode"`
	Country  string `json:"country" yaml:"country"`
}

// Fields returns the registry template used wherever an address is nested.
func Fields() []model.Field {
	return []model.Field{
		{Key: "line1", Kind: model.KindText, Label: "Address line 1", Required: true},
		{Key: "line2", Kind: model.KindText, Label: "Address line 2"},
		{Key: "city", Kind: model.KindText, Label: "Town / city", Required: true},
		{Key: "region", Kind: model.KindText, Label: "County / region"},
		{Key: "postcode", Kind: model.KindText, Label: "Postcode", Required: true},
		{Key: "country", Kind: model.KindEnum, Label: "Country", Required: true, Enum: append([]string(nil), Countries...)},
	}
}

// Normalize trims every part and upper-cases the postcode.
func (a Address) Normalize() Address {
	return Address{
		Line1:    strings.TrimSpace(a.Line1),
		Line2:    strings.TrimSpace(a.Line2),
		City:     strings.TrimSpace(a.City),
		Region:   strings.TrimSpace(a.Region),
		Postcode: strings.ToUpper(strings.Join(strings.Fields(a.Postcode), " ")),
		Country:  strings.TrimSpace(a.Country),
	}
}

// IsZero reports whether no part has been filled in.
func (a Address) IsZero() bool {
	return a.Normalize() == Address{}
}

// Complete reports whether every required part is non-empty.
func (a Address) Complete() bool {
	n := a.Normalize()
	return n.Line1 != "" && n.City != "" && n.Postcode != "" && n.Country != ""
}

// Compose joins the non-empty parts into a single line, in postal order.
func (a Address) Compose() string {
	n := a.Normalize()
	parts := make([]string, 0, 6)
	for _, part := range []string{n.Line1, n.Line2, n.City, n.Region, n.Postcode, n.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

// Values returns the address as a map keyed by the registry field keys.
func (a Address) Values() map[string]any {
	return map[string]any{
		"line1":    a.Line1,
		"line2":    a.Line2,
		"city":     a.City,
		"region":   a.Region,
		"postcode": a.Postcode,
		"country":  a.Country,
	}
}
