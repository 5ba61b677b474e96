// Package signature implements the freehand signature capture surface. Pointer
// and touch events are normalised into raster coordinates, strokes are
// rasterised with golang.org/x/image/vector and, every time a stroke ends, the
// canvas is serialised into a PNG data URL that is pushed into the bound form
// field. An untouched or cleared surface binds the empty string.
package signature
