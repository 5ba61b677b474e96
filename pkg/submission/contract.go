package submission

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	contractPath      = "/api/instructions"
	contractMediaType = "application/json"
)

//go:embed contract.yaml
var contractDocument []byte

// Contract is the payload schema shared by the submitter and the intake
// backend, taken from the request body of POST /api/instructions.
type Contract struct {
	doc    *openapi3.T
	schema *openapi3.Schema
}

var (
	defaultContract     *Contract
	defaultContractErr  error
	defaultContractOnce sync.Once
)

// DefaultContract returns the embedded contract. It is parsed once.
func DefaultContract() (*Contract, error) {
	defaultContractOnce.Do(func() {
		defaultContract, defaultContractErr = ParseContract(context.Background(), contractDocument)
	})
	return defaultContract, defaultContractErr
}

// ContractDocument returns the raw OpenAPI document.
func ContractDocument() []byte {
	return append([]byte(nil), contractDocument...)
}

// ParseContract loads an OpenAPI document and extracts the instruction
// request schema.
func ParseContract(ctx context.Context, raw []byte) (*Contract, error) {
	if len(raw) == 0 {
		return nil, errors.New("submission: contract document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("submission: load contract: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("submission: validate contract: %w", err)
	}

	if doc.Paths == nil {
		return nil, errors.New("submission: contract has no paths")
	}
	item := doc.Paths.Value(contractPath)
	if item == nil || item.Post == nil || item.Post.RequestBody == nil || item.Post.RequestBody.Value == nil {
		return nil, fmt.Errorf("submission: contract has no POST %s request body", contractPath)
	}
	media := item.Post.RequestBody.Value.Content.Get(contractMediaType)
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil, fmt.Errorf("submission: contract has no %s schema", contractMediaType)
	}
	return &Contract{doc: doc, schema: media.Schema.Value}, nil
}

// Check validates the JSON view of a payload against the schema, reporting
// every violation.
func (c *Contract) Check(values map[string]any) error {
	if c == nil || c.schema == nil {
		return nil
	}
	if err := c.schema.VisitJSON(values, openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("submission: payload violates contract: %w", err)
	}
	return nil
}

// CheckPayload validates p.
func (c *Contract) CheckPayload(p Payload) error {
	values, err := p.Values()
	if err != nil {
		return err
	}
	return c.Check(values)
}

// RequiredKeys lists the top-level keys every payload must carry.
func (c *Contract) RequiredKeys() []string {
	if c == nil || c.schema == nil {
		return nil
	}
	keys := append([]string(nil), c.schema.Required...)
	sort.Strings(keys)
	return keys
}

// Properties lists every top-level key the contract knows.
func (c *Contract) Properties() []string {
	if c == nil || c.schema == nil {
		return nil
	}
	keys := make([]string, 0, len(c.schema.Properties))
	for key := range c.schema.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Violations flattens a Check error into messages keyed by dotted payload
// path. Errors that carry no path are keyed by the empty string.
func Violations(err error) map[string][]string {
	if err == nil {
		return nil
	}
	out := map[string][]string{}
	collectViolations(err, out)
	return out
}

func collectViolations(err error, out map[string][]string) {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, e := range multi {
			collectViolations(e, out)
		}
		return
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		key := strings.Join(schemaErr.JSONPointer(), ".")
		msg := schemaErr.Reason
		if msg == "" {
			msg = schemaErr.Error()
		}
		out[key] = append(out[key], msg)
		return
	}
	out[""] = append(out[""], err.Error())
}
