// Package model defines the declarative field registry shared by validation,
// the conditional section controller and the renderers. A Registry groups
// Fields into Sections; nested fields (addresses) carry their children in
// Nested and are addressed with dotted paths such as `siteAddress.postcode`.
// Requiredness is either static (Required) or derived from sibling values via
// a RequiredWhen expression evaluated by pkg/visibility/expr. Registries are
// normally produced by pkg/registry from the embedded YAML document.
package model
