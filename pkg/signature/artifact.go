package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// DefaultMaxBytes bounds decoded artifacts accepted by DecodeArtifact.
const DefaultMaxBytes = 2 << 20

var (
	ErrEmptyArtifact   = errors.New("signature: empty artifact")
	ErrInvalidDataURL  = errors.New("signature: invalid data url")
	ErrUnsupportedMime = errors.New("signature: unsupported mime type")
	ErrTooLarge        = errors.New("signature: artifact exceeds max size")
)

var allowedMimes = []string{"image/png", "image/jpeg", "image/webp"}

// DecodeArtifact validates a base64 data URL and returns the raw image bytes
// and their sniffed mime type. maxBytes <= 0 selects DefaultMaxBytes.
func DecodeArtifact(artifact string, maxBytes int) ([]byte, string, error) {
	raw := strings.TrimSpace(artifact)
	if raw == "" {
		return nil, "", ErrEmptyArtifact
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !strings.HasPrefix(raw, "data:") || !ok {
		return nil, "", ErrInvalidDataURL
	}
	mime, isBase64 := strings.CutSuffix(strings.ToLower(meta), ";base64")
	if !isBase64 || mime == "" {
		return nil, "", fmt.Errorf("%w: expected base64 payload", ErrInvalidDataURL)
	}
	if !isAllowed(mime) {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedMime, mime)
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(decoded) == 0 {
		return nil, "", ErrEmptyArtifact
	}
	if len(decoded) > maxBytes {
		return nil, "", ErrTooLarge
	}
	detected := http.DetectContentType(decoded)
	if !strings.EqualFold(detected, mime) {
		return nil, "", fmt.Errorf("%w: declared %s but content is %s", ErrInvalidDataURL, mime, detected)
	}
	return decoded, detected, nil
}

// DecodeImage parses an artifact into an image.
func DecodeImage(artifact string) (image.Image, error) {
	data, mime, err := DecodeArtifact(artifact, 0)
	if err != nil {
		return nil, err
	}
	if mime == "image/webp" {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("signature: decode webp: %w", err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("signature: decode: %w", err)
	}
	return img, nil
}

// Thumbnail downsizes an artifact to width pixels, keeping the aspect ratio,
// and returns it as a PNG data URL.
func Thumbnail(artifact string, width int) (string, error) {
	if width <= 0 {
		return "", errors.New("signature: thumbnail width must be positive")
	}
	src, err := DecodeImage(artifact)
	if err != nil {
		return "", err
	}
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return "", ErrEmptyArtifact
	}
	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return "", fmt.Errorf("signature: encode thumbnail: %w", err)
	}
	return DataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func isAllowed(mime string) bool {
	for _, allowed := range allowedMimes {
		if strings.EqualFold(allowed, mime) {
			return true
		}
	}
	return false
}
