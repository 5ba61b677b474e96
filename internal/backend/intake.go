package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/goliatone/go-instructform/internal/store"
	"github.com/goliatone/go-instructform/pkg/attachments"
	"github.com/goliatone/go-instructform/pkg/form"
	"github.com/goliatone/go-instructform/pkg/geo"
	"github.com/goliatone/go-instructform/pkg/signature"
	"github.com/goliatone/go-instructform/pkg/submission"
	"github.com/goliatone/go-instructform/pkg/validation"
)

// Multipart field names shared with the HTTP submitter.
const (
	payloadField    = "payload"
	attachmentField = "attachments[]"
)

// rejection is the error document returned for refused submissions.
type rejection struct {
	Status  int                 `json:"-"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func (r *rejection) Error() string {
	return fmt.Sprintf("backend: rejected (%d): %s", r.Status, r.Message)
}

func reject(status int, message string, fields map[string][]string) *rejection {
	return &rejection{Status: status, Message: message, Errors: fields}
}

// intake is a decoded, checked submission.
type intake struct {
	payload submission.Payload
	raw     json.RawMessage
	files   []store.Attachment
}

func (s *Server) decode(c fiber.Ctx) (*intake, error) {
	contentType := strings.ToLower(c.Get(fiber.HeaderContentType))

	var (
		in  *intake
		err error
	)
	switch {
	case strings.HasPrefix(contentType, fiber.MIMEApplicationJSON):
		in, err = s.decodeDocument(append([]byte(nil), c.Body()...))
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		mf, ferr := c.MultipartForm()
		if ferr != nil {
			return nil, reject(fiber.StatusBadRequest, "The request body could not be read.", nil)
		}
		in, err = s.decodeMultipart(mf)
	default:
		return nil, reject(fiber.StatusUnsupportedMediaType, "Send the instruction as JSON or multipart/form-data.", nil)
	}
	if err != nil {
		return nil, err
	}

	if err := s.checkSignature(in.payload); err != nil {
		return nil, err
	}
	if err := s.checkFiles(in); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *Server) decodeMultipart(mf *multipart.Form) (*intake, error) {
	files, err := readFiles(mf.File[attachmentField])
	if err != nil {
		return nil, err
	}

	var in *intake
	if doc := lastValue(mf.Value, payloadField); doc != "" {
		in, err = s.decodeDocument([]byte(doc))
	} else {
		in, err = s.decodeFields(mf.Value, files)
	}
	if err != nil {
		return nil, err
	}
	in.files = files
	return in, nil
}

// decodeDocument checks a JSON payload against the contract.
func (s *Server) decodeDocument(raw []byte) (*intake, error) {
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, reject(fiber.StatusBadRequest, "The instruction is not valid JSON.", nil)
	}
	if err := s.contract.Check(values); err != nil {
		s.logger.Debug("payload violates contract", zap.Error(err))
		return nil, reject(fiber.StatusUnprocessableEntity, "The instruction is incomplete.", submission.Violations(err))
	}

	var p submission.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, reject(fiber.StatusUnprocessableEntity, "The instruction could not be read.", nil)
	}
	return &intake{payload: p, raw: json.RawMessage(raw)}, nil
}

// decodeFields builds a payload from a post of individual registry paths,
// the shape produced by the HTML form.
func (s *Server) decodeFields(values map[string][]string, files []store.Attachment) (*intake, error) {
	state := form.New()
	fieldErrs := map[string][]string{}

	for path, list := range values {
		if len(list) == 0 {
			continue
		}
		raw := list[len(list)-1]
		switch path {
		case "latitude", "longitude", "mapsLink", "attachments":
			continue
		}
		if _, known := s.registry.Lookup(path); !known {
			s.logger.Debug("ignoring unknown form field", zap.String("field", path))
			continue
		}
		if err := state.Bind(path, raw); err != nil {
			fieldErrs[path] = append(fieldErrs[path], err.Error())
		}
	}

	if lat, lng := lastValue(values, "latitude"), lastValue(values, "longitude"); lat != "" || lng != "" {
		if err := confirmLocation(state, lat, lng); err != nil {
			fieldErrs["latitude"] = append(fieldErrs["latitude"], err.Error())
		}
	}

	handles := make([]attachments.FileHandle, 0, len(files))
	for _, f := range files {
		handles = append(handles, &attachments.MemoryFile{FileName: f.Name, Data: f.Data})
	}
	if err := state.AppendAttachments(handles...); err != nil {
		return nil, err
	}

	errs, err := validation.Check(s.registry, state.Snapshot())
	if err != nil {
		return nil, err
	}
	for path, msg := range errs {
		fieldErrs[path] = append(fieldErrs[path], msg)
	}
	if len(fieldErrs) > 0 {
		return nil, reject(fiber.StatusUnprocessableEntity, "Please correct the highlighted fields.", fieldErrs)
	}

	p, err := s.denormalizer.Denormalize(state)
	if err != nil {
		return nil, reject(fiber.StatusUnprocessableEntity, err.Error(), nil)
	}
	if err := s.contract.CheckPayload(p); err != nil {
		return nil, reject(fiber.StatusUnprocessableEntity, "The instruction is incomplete.", submission.Violations(err))
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("backend: encode payload: %w", err)
	}
	return &intake{payload: p, raw: raw}, nil
}

func (s *Server) checkSignature(p submission.Payload) error {
	if _, _, err := signature.DecodeArtifact(p.SignatureDataURL, s.signatureMax); err != nil {
		return reject(fiber.StatusUnprocessableEntity, "The signature could not be read.", map[string][]string{
			"signature_data_url": {err.Error()},
		})
	}
	return nil
}

// checkFiles matches uploads against the declared names and the policy.
func (s *Server) checkFiles(in *intake) error {
	names := in.payload.AttachmentNames
	if len(names) != len(in.files) {
		return reject(fiber.StatusUnprocessableEntity, "The attachments do not match the instruction.", map[string][]string{
			"attachment_names": {fmt.Sprintf("expected %d files, received %d", len(names), len(in.files))},
		})
	}

	list := attachments.NewList()
	for i := range in.files {
		f := &in.files[i]
		if f.Name != names[i] {
			return reject(fiber.StatusUnprocessableEntity, "The attachments do not match the instruction.", map[string][]string{
				"attachment_names": {fmt.Sprintf("file %d is %q, expected %q", i+1, f.Name, names[i])},
			})
		}
		handle := &attachments.MemoryFile{FileName: f.Name, Data: f.Data}
		mime, err := attachments.DetectType(handle)
		if err != nil {
			return err
		}
		f.ContentType = mime
		list.Append(handle)
	}

	if err := s.policy.Check(list); err != nil {
		var incomplete *attachments.IncompleteAttachmentError
		if errors.As(err, &incomplete) {
			return reject(fiber.StatusUnprocessableEntity, err.Error(), nil)
		}
		return reject(fiber.StatusUnprocessableEntity, "An attachment was refused.", map[string][]string{
			"attachment_names": {err.Error()},
		})
	}
	return nil
}

func confirmLocation(state *form.State, lat, lng string) error {
	latF, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return fmt.Errorf("latitude %q is not a number", lat)
	}
	lngF, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return fmt.Errorf("longitude %q is not a number", lng)
	}
	_, err = state.ConfirmLocation(geo.Point{Lat: latF, Lng: lngF})
	return err
}

func readFiles(headers []*multipart.FileHeader) ([]store.Attachment, error) {
	out := make([]store.Attachment, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("backend: open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("backend: read upload %s: %w", fh.Filename, err)
		}
		out = append(out, store.Attachment{Name: fh.Filename, Size: int64(len(data)), Data: data})
	}
	return out, nil
}

func lastValue(values map[string][]string, key string) string {
	list := values[key]
	if len(list) == 0 {
		return ""
	}
	return strings.TrimSpace(list[len(list)-1])
}
