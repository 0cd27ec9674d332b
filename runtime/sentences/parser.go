package sentences

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
)

// sentenceArraySchema is the only shape accepted from a model.
const sentenceArraySchema = `{"type":"array","items":{"type":"string"}}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(sentenceArraySchema))
})

// ParseError reports model output that is not a JSON array of strings.
// It matches pkg/errors.ErrParse.
type ParseError struct {
	Reason string
	Raw    string
	Cause  error
}

func (e *ParseError) Error() string {
	msg := "unparseable model output: " + e.Reason
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the parse kind sentinel.
func (e *ParseError) Is(target error) bool {
	return target == pkgerrors.ErrParse
}

// ParseSentences extracts a JSON array of strings from raw model output.
// Markdown code fences and any prose around the outermost brackets are ignored.
func ParseSentences(raw string) ([]string, error) {
	text := stripCodeFence(strings.TrimSpace(raw))

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, &ParseError{Reason: "no JSON array found", Raw: raw}
	}
	doc := text[start : end+1]

	schema, err := compiledSchema()
	if err != nil {
		return nil, &ParseError{Reason: "schema", Raw: raw, Cause: err}
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Raw: raw, Cause: err}
	}
	if !result.Valid() {
		details := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			details[i] = desc.String()
		}
		return nil, &ParseError{Reason: fmt.Sprintf("schema violation: %v", details), Raw: raw}
	}

	var out []string
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Raw: raw, Cause: err}
	}
	return out, nil
}

// stripCodeFence removes a ```json ... ``` wrapper.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// drop the info string, e.g. "json"
		if !strings.ContainsAny(text[:nl], "[]") {
			text = text[nl+1:]
		}
	}
	text = strings.TrimSpace(text)
	return strings.TrimSpace(strings.TrimSuffix(text, "```"))
}
