// Package html renders an instruction form as server-side HTML with pongo2
// templates. Only visible fields are emitted; errors, hints and the signature
// preview come from the form state.
package html
