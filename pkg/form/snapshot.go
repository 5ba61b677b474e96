package form

// Snapshot returns the current values keyed by registry path. Nested
// addresses are maps, attachments are listed by name and the location keys
// are present only once a location has been confirmed.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := map[string]any{
		"firstName":     s.client.FirstName,
		"lastName":      s.client.LastName,
		"companyName":   s.client.CompanyName,
		"email":         s.client.Email,
		"phone":         s.client.Phone,
		"clientAddress": s.client.Address.Values(),

		"siteAddress":       s.property.SiteAddress.Values(),
		"propertyType":      s.property.Type,
		"propertyTypeOther": s.property.TypeOther,
		"sitePlanAvailable": s.property.SitePlanAvailable,
		"occupantCount":     s.property.OccupantCount,
		"vehicleCount":      s.property.VehicleCount,
		"dogsOnSite":        s.property.DogsOnSite,
		"requiredDate":      s.property.RequiredDate,
		"accessNotes":       s.property.AccessNotes,

		"authorityRole":         s.authority.Role,
		"hasLandRegistry":       s.authority.HasLandRegistry,
		"hasLease":              s.authority.HasLease,
		"hasManagementContract": s.authority.HasManagementContract,

		"invoicingSameAsClient": s.invoicing.SameAsClient,
		"invoicingAddress":      s.invoicing.Address.Values(),
		"invoiceEmail":          s.invoicing.Email,
		"poNumber":              s.invoicing.PONumber,

		"notes":            s.notes,
		"attachments":      s.attachments.Names(),
		"acceptTerms":      s.terms.Accepted,
		"signatureDataUrl": s.signature,
	}
	if s.location != nil {
		values["latitude"] = s.location.Lat
		values["longitude"] = s.location.Lng
		values["mapsLink"] = s.location.MapsLink
	}
	return values
}
