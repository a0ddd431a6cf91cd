// Package collection describes the versioned identity of a vector collection:
// its name, the embedding model it was indexed with, and the optional context
// template wrapped around text before embedding. The three are bound together
// and only ever change as a unit.
package collection

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// QuerySlot is the template action a context template must contain exactly
// once. The raw query is substituted there.
const QuerySlot = "{{.Query}}"

var (
	// ErrInvalidIdentity is returned when an Identity fails validation.
	ErrInvalidIdentity = errors.New("invalid collection identity")
)

// Identity is the versioning unit for a collection. Queries must be encoded
// with the same model and template the collection was indexed with, otherwise
// search results degrade silently.
type Identity struct {
	// Name of the collection in the vector backend.
	Name string

	// EmbeddingModel is the provider model identifier (e.g. "all-minilm").
	EmbeddingModel string

	// ContextTemplate optionally wraps the query before embedding. Empty means
	// the raw query is embedded as-is.
	ContextTemplate string

	// Dimensions is the vector length the model produces and the collection
	// declares.
	Dimensions uint
}

// Template is a parsed, validated context template.
type Template struct {
	raw  string
	tmpl *template.Template
}

type templateData struct {
	Query string
}

// Validate checks that every field of the identity is usable.
func (id Identity) Validate() error {
	if strings.TrimSpace(id.Name) == "" {
		return fmt.Errorf("%w: collection name is required", ErrInvalidIdentity)
	}
	if strings.TrimSpace(id.EmbeddingModel) == "" {
		return fmt.Errorf("%w: embedding model is required", ErrInvalidIdentity)
	}
	if id.Dimensions == 0 {
		return fmt.Errorf("%w: dimensions must be greater than zero", ErrInvalidIdentity)
	}
	if _, err := id.Template(); err != nil {
		return err
	}
	return nil
}

// Template parses the context template. It returns a nil *Template and no
// error when no template is configured.
func (id Identity) Template() (*Template, error) {
	if id.ContextTemplate == "" {
		return nil, nil
	}
	return ParseTemplate(id.ContextTemplate)
}

// Fingerprint is a short stable digest of name, model and template. Two
// deployments with the same fingerprint encode queries identically.
func (id Identity) Fingerprint() string {
	h := sha256.New()
	for _, part := range []string{id.Name, id.EmbeddingModel, id.ContextTemplate} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// ParseTemplate parses raw and checks it contains the query slot exactly once.
func ParseTemplate(raw string) (*Template, error) {
	if n := strings.Count(raw, QuerySlot); n != 1 {
		return nil, fmt.Errorf("%w: context template must contain %s exactly once, found %d",
			ErrInvalidIdentity, QuerySlot, n)
	}

	tmpl, err := template.New("context").Option("missingkey=error").Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing context template: %v", ErrInvalidIdentity, err)
	}

	t := &Template{raw: raw, tmpl: tmpl}

	// Execute once so a template that parses but cannot render is rejected
	// at startup rather than on the first request.
	if _, err := t.Render("query"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	return t, nil
}

// Render substitutes query into the template. A nil template returns the
// query unchanged.
func (t *Template) Render(query string) (string, error) {
	if t == nil {
		return query, nil
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, templateData{Query: query}); err != nil {
		return "", fmt.Errorf("rendering context template: %w", err)
	}
	return buf.String(), nil
}

// String returns the raw template text.
func (t *Template) String() string {
	if t == nil {
		return ""
	}
	return t.raw
}
