// results_test.go exercises response decoding, the record shape check, and
// the status mapping reduction.
package results

import (
	"encoding/json"
	"testing"
)

func mustItem(t *testing.T, raw string) Item {
	t.Helper()
	var it Item
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	return it
}

func TestIsValidRecord(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"complete update", `{"_id":{"$oid":"abc"},"operation":"DeployStack","status":"Complete"}`, true},
		{"missing operation", `{"_id":{"$oid":"abc"},"status":"Complete"}`, false},
		{"missing id", `{"operation":"DeployStack"}`, false},
		{"oid not a string", `{"_id":{"$oid":42},"operation":"DeployStack"}`, false},
		{"empty string oid", `{"_id":{"$oid":""},"operation":"DeployStack"}`, false},
		{"error payload", `{"err":{"error":"stack not found"}}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidRecord(mustItem(t, tc.raw)); got != tc.valid {
				t.Fatalf("IsValidRecord(%s) = %v, want %v", tc.raw, got, tc.valid)
			}
		})
	}
}

func TestIsValidRecordWrongIDShape(t *testing.T) {
	// _id present but not the {"$oid": ...} wrapper object.
	it := mustItem(t, `{"_id":"plain-string","operation":"DeployStack"}`)
	if IsValidRecord(it) {
		t.Fatalf("expected plain-string _id to be rejected")
	}
}

func TestDecodeSingleDocument(t *testing.T) {
	out := Decode(json.RawMessage(`{"_id":{"$oid":"id1"},"operation":"DeployStack","status":"Complete","operator":"ci","success":true}`))
	if len(out) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out))
	}
	rec := out[0].Update
	if rec == nil {
		t.Fatalf("expected an update, got failure")
	}
	if rec.ID != "id1" || rec.Status != "Complete" || rec.Operation != "DeployStack" || !rec.Success {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestDecodeArrayPreservesOrder(t *testing.T) {
	payload := json.RawMessage(`[
		{"_id":{"$oid":"id1"},"operation":"DeployStack","status":"Complete"},
		{"err":{"error":"no matching stack"}},
		{"_id":{"$oid":"id2"},"operation":"DeployStack","status":"InProgress"}
	]`)
	out := Decode(payload)
	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	if out[0].Update == nil || out[0].Update.ID != "id1" {
		t.Fatalf("expected id1 first, got %+v", out[0])
	}
	if out[1].Failure == nil {
		t.Fatalf("expected error payload second, got %+v", out[1])
	}
	if out[2].Update == nil || out[2].Update.ID != "id2" {
		t.Fatalf("expected id2 last, got %+v", out[2])
	}
}

func TestDecodeGarbage(t *testing.T) {
	out := Decode(json.RawMessage(`not json at all`))
	if len(out) != 1 || out[0].Failure == nil {
		t.Fatalf("expected a single failure, got %+v", out)
	}
	if got := Decode(nil); got != nil {
		t.Fatalf("expected nil for empty payload, got %+v", got)
	}
}

func TestCollectFlattensAcrossTargets(t *testing.T) {
	payloads := []json.RawMessage{
		json.RawMessage(`{"_id":{"$oid":"a"},"operation":"RunProcedure","status":"Complete"}`),
		json.RawMessage(`[{"_id":{"$oid":"b"},"operation":"RunProcedure","status":"Complete"},{"_id":{"$oid":"c"},"operation":"RunProcedure","status":"Complete"}]`),
	}
	out := Collect(payloads)
	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if out[i].Update == nil || out[i].Update.ID != id {
			t.Fatalf("position %d: expected %s, got %+v", i, id, out[i])
		}
	}
}

func TestReduceSkipsFailures(t *testing.T) {
	items := []Result{
		{Update: &Record{ID: "id1", Status: "Complete"}},
		{Failure: &ErrorRecord{Raw: json.RawMessage(`{"err":{}}`)}},
		{Update: &Record{ID: "id2", Status: "Complete"}},
	}
	m := Reduce(items)
	if m.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.Len())
	}
	if _, ok := m.Get("id1"); !ok {
		t.Fatalf("id1 missing from mapping")
	}
}

func TestReduceLastWriteWins(t *testing.T) {
	items := []Result{
		{Update: &Record{ID: "dup", Status: "InProgress"}},
		{Update: &Record{ID: "other", Status: "Complete"}},
		{Update: &Record{ID: "dup", Status: "Complete"}},
	}
	m := Reduce(items)
	if m.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.Len())
	}
	if status, _ := m.Get("dup"); status != "Complete" {
		t.Fatalf("expected later status to win, got %s", status)
	}
	keys := m.Keys()
	if keys[0] != "dup" || keys[1] != "other" {
		t.Fatalf("expected first-insertion key order, got %v", keys)
	}
}

func TestStatusMappingJSON(t *testing.T) {
	m := NewStatusMapping()
	buf, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal empty mapping: %v", err)
	}
	if string(buf) != "{}" {
		t.Fatalf("expected {}, got %s", buf)
	}
	m.Set("id1", "Complete")
	m.Set("id2", "Failed")
	buf, err = json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal mapping: %v", err)
	}
	if string(buf) != `{"id1":"Complete","id2":"Failed"}` {
		t.Fatalf("unexpected json: %s", buf)
	}
	var round map[string]string
	if err := json.Unmarshal(buf, &round); err != nil {
		t.Fatalf("mapping json is not an object: %v", err)
	}
}
