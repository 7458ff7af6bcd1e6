package shares

import (
	"encoding/json"
	"slices"
)

// ValidationResult carries the server's verdict on a selection.
type ValidationResult struct {
	Failed       bool                `json:"failed"`
	Errors       map[string][]string `json:"errors"`
	ErrorContext map[string][]string `json:"error_context"`
}

// WithError returns a failed copy of v with msg appended to the field's errors.
func (v ValidationResult) WithError(field, msg string) ValidationResult {
	out := v.Clone()
	out.Failed = true
	out.Errors[field] = append(out.Errors[field], msg)
	return out
}

// WithContext returns a copy of v with values appended to the field's error context.
func (v ValidationResult) WithContext(field string, values ...string) ValidationResult {
	out := v.Clone()
	out.ErrorContext[field] = append(out.ErrorContext[field], values...)
	return out
}

// FieldErrors returns the messages recorded for field.
func (v ValidationResult) FieldErrors(field string) []string {
	return slices.Clone(v.Errors[field])
}

// Clone returns a deep copy with non-nil maps.
func (v ValidationResult) Clone() ValidationResult {
	return ValidationResult{
		Failed:       v.Failed,
		Errors:       cloneStringLists(v.Errors),
		ErrorContext: cloneStringLists(v.ErrorContext),
	}
}

// MarshalJSON always renders both maps as objects.
func (v ValidationResult) MarshalJSON() ([]byte, error) {
	type plain ValidationResult
	return json.Marshal(plain(v.Clone()))
}

func cloneStringLists(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for key, values := range in {
		out[key] = slices.Clone(values)
	}
	return out
}
