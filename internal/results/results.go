// Package results flattens raw execution responses into a status mapping.
//
// The orchestrator answers an execute request with either a single update
// document or a list of them, and batch responses may interleave
// error-shaped payloads with real updates. Everything here is about sorting
// that mess into well-formed records and reducing them to identifier→status.
package results

import (
	"bytes"
	"encoding/json"
)

// Record is a well-formed update returned by the orchestrator: it carries a
// usable identifier and the operation marker that distinguishes it from an
// error payload.
type Record struct {
	ID        string
	Operation string
	Status    string
	Operator  string
	Success   bool
}

// ErrorRecord is a response element that failed the shape check. It is kept
// around for logging but never contributes to the status mapping.
type ErrorRecord struct {
	Raw json.RawMessage
}

// Result is the outcome of decoding one response element: exactly one of
// Update or Failure is set.
type Result struct {
	Update  *Record
	Failure *ErrorRecord
}

// Item mirrors the loose wire shape of one execution response element.
// Fields are weakly typed on purpose: the validity check, not the JSON
// decoder, decides what counts as a usable record.
type Item struct {
	ID        json.RawMessage `json:"_id"`
	Operation json.RawMessage `json:"operation"`
	Status    string          `json:"status"`
	Operator  string          `json:"operator"`
	Success   bool            `json:"success"`
}

// identifier extracts the nested _id.$oid value, reporting whether it is a
// non-empty string.
func (it Item) identifier() (string, bool) {
	if len(it.ID) == 0 {
		return "", false
	}
	var wrapper struct {
		OID json.RawMessage `json:"$oid"`
	}
	if err := json.Unmarshal(it.ID, &wrapper); err != nil {
		return "", false
	}
	var id string
	if err := json.Unmarshal(wrapper.OID, &id); err != nil {
		return "", false
	}
	return id, id != ""
}

// IsValidRecord reports whether a response element is a usable update: it
// must expose an operation field (error payloads do not) and carry a string
// identifier under _id.$oid. Anything else is treated as error-shaped and
// dropped from the mapping without failing the run.
func IsValidRecord(it Item) bool {
	if len(it.Operation) == 0 {
		return false
	}
	_, ok := it.identifier()
	return ok
}

// Decode expands one raw execution response into results. A JSON array is
// flattened in place, preserving element order; a single document yields one
// result. Elements that do not decode or fail the record check become
// failures rather than errors.
func Decode(payload json.RawMessage) []Result {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil
	}
	var elements []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return []Result{{Failure: &ErrorRecord{Raw: trimmed}}}
		}
	} else {
		elements = []json.RawMessage{trimmed}
	}
	out := make([]Result, 0, len(elements))
	for _, element := range elements {
		out = append(out, decodeElement(element))
	}
	return out
}

func decodeElement(element json.RawMessage) Result {
	var it Item
	if err := json.Unmarshal(element, &it); err != nil {
		return Result{Failure: &ErrorRecord{Raw: element}}
	}
	if !IsValidRecord(it) {
		return Result{Failure: &ErrorRecord{Raw: element}}
	}
	id, _ := it.identifier()
	var operation string
	_ = json.Unmarshal(it.Operation, &operation)
	return Result{Update: &Record{
		ID:        id,
		Operation: operation,
		Status:    it.Status,
		Operator:  it.Operator,
		Success:   it.Success,
	}}
}

// Collect decodes a sequence of per-target response payloads in order,
// producing one flat result sequence.
func Collect(payloads []json.RawMessage) []Result {
	var out []Result
	for _, payload := range payloads {
		out = append(out, Decode(payload)...)
	}
	return out
}

// Reduce builds the identifier→status mapping from a flat result sequence.
// Failures are skipped; duplicate identifiers are last-write-wins.
func Reduce(items []Result) *StatusMapping {
	m := NewStatusMapping()
	for _, item := range items {
		if item.Update == nil {
			continue
		}
		m.Set(item.Update.ID, item.Update.Status)
	}
	return m
}
