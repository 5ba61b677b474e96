package registry

import (
	"embed"
	"io/fs"
)

//go:embed schema/*
var embeddedSchema embed.FS

// EmbeddedFS returns the bundled registry documents.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedSchema, "schema")
	if err != nil {
		// the embed directive guarantees the subpath exists
		panic(err)
	}
	return sub
}
