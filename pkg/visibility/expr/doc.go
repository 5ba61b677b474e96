// Package expr implements the small rule language used by the instruction
// registry for visibleWhen, requiredWhen and hintWhen.
//
// Supported forms:
//
//	sitePlanAvailable                      truthy check
//	!invoicingSameAsClient                 negation
//	propertyType == "other"                comparison against a literal
//	authorityRole != "owner" && x == 3     boolean composition, parentheses
//
// Identifiers resolve against visibility.Context.Values with dot-path
// traversal; the `extras.` prefix reads visibility.Context.Extras instead.
// Compiled programs are cached per rule string.
package expr
