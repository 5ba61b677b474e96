package attachments

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrUnsupportedType and ErrTooLarge are returned by Policy.Check.
var (
	ErrUnsupportedType = errors.New("attachments: unsupported file type")
	ErrTooLarge        = errors.New("attachments: file too large")
	ErrTooMany         = errors.New("attachments: too many files")
)

// IncompleteAttachmentError reports that fewer files than required were
// attached. It is surfaced as a blocking alert at submit time rather than as
// a field error.
type IncompleteAttachmentError struct {
	Required int
	Got      int
}

func (e *IncompleteAttachmentError) Error() string {
	return fmt.Sprintf("attachments: at least %d file(s) required, %d attached", e.Required, e.Got)
}

// Policy constrains the list at submit time. The zero value accepts
// anything.
type Policy struct {
	MinCount     int      `yaml:"min_count" json:"min_count,omitempty"`
	MaxCount     int      `yaml:"max_count" json:"max_count,omitempty"`
	MaxBytes     int64    `yaml:"max_bytes" json:"max_bytes,omitempty"`
	AllowedTypes []string `yaml:"allowed_types" json:"allowed_types,omitempty"`
}

// Zero reports whether the policy enforces nothing.
func (p Policy) Zero() bool {
	return p.MinCount <= 0 && p.MaxCount <= 0 && p.MaxBytes <= 0 && len(p.AllowedTypes) == 0
}

// Check validates l against the policy. Content is only sniffed when
// AllowedTypes is set, and then only the first 512 bytes are read.
func (p Policy) Check(l *List) error {
	if p.Zero() {
		return nil
	}
	n := l.Len()
	if p.MinCount > 0 && n < p.MinCount {
		return &IncompleteAttachmentError{Required: p.MinCount, Got: n}
	}
	if p.MaxCount > 0 && n > p.MaxCount {
		return fmt.Errorf("%w: %d attached, at most %d allowed", ErrTooMany, n, p.MaxCount)
	}
	for _, f := range l.Items() {
		if p.MaxBytes > 0 {
			size, err := f.Size()
			if err != nil {
				return fmt.Errorf("attachments: stat %s: %w", f.Name(), err)
			}
			if size > p.MaxBytes {
				return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, f.Name(), size, p.MaxBytes)
			}
		}
		if len(p.AllowedTypes) > 0 {
			mime, err := DetectType(f)
			if err != nil {
				return err
			}
			if !p.allows(mime) {
				return fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, f.Name(), mime)
			}
		}
	}
	return nil
}

func (p Policy) allows(mime string) bool {
	for _, allowed := range p.AllowedTypes {
		allowed = strings.TrimSpace(allowed)
		if strings.EqualFold(allowed, mime) {
			return true
		}
		if prefix, ok := strings.CutSuffix(allowed, "/*"); ok && strings.HasPrefix(mime, prefix+"/") {
			return true
		}
	}
	return false
}

// DetectType sniffs the content type of f from its first 512 bytes.
func DetectType(f FileHandle) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("attachments: open %s: %w", f.Name(), err)
	}
	defer rc.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("attachments: read %s: %w", f.Name(), err)
	}
	mime := http.DetectContentType(head[:n])
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	return mime, nil
}
