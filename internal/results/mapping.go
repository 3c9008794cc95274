package results

import (
	"bytes"
	"encoding/json"
)

// StatusMapping is an insertion-ordered identifier→status map. Insertion
// order only matters for the rendered summary table; the JSON form is a
// plain object.
type StatusMapping struct {
	keys     []string
	statuses map[string]string
}

func NewStatusMapping() *StatusMapping {
	return &StatusMapping{statuses: map[string]string{}}
}

// Set records a status for an identifier. An identifier seen before keeps
// its original position but takes the new status.
func (m *StatusMapping) Set(id, status string) {
	if _, seen := m.statuses[id]; !seen {
		m.keys = append(m.keys, id)
	}
	m.statuses[id] = status
}

func (m *StatusMapping) Get(id string) (string, bool) {
	status, ok := m.statuses[id]
	return status, ok
}

func (m *StatusMapping) Len() int {
	return len(m.keys)
}

// Keys returns identifiers in insertion order.
func (m *StatusMapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// MarshalJSON renders the mapping as a JSON object in insertion order. An
// empty mapping marshals as {}.
func (m *StatusMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		encodedValue, err := json.Marshal(m.statuses[key])
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
