package fingerprint

import "testing"

func TestCanonicalJSONSortsKeys(t *testing.T) {
	data, err := CanonicalJSON(map[string]any{"b": 1, "a": []string{"x", "y"}})
	if err != nil {
		t.Fatalf("canonical json: %v", err)
	}
	if string(data) != `{"a":["x","y"],"b":1}` {
		t.Fatalf("unexpected canonical json %s", data)
	}
}

func TestOfIsStableAcrossShapes(t *testing.T) {
	type payload struct {
		Variant  string   `json:"variant"`
		Features []string `json:"features"`
	}
	fromStruct, err := Of(payload{Variant: "m", Features: []string{"f1"}})
	if err != nil {
		t.Fatalf("fingerprint struct: %v", err)
	}
	fromMap, err := Of(map[string]any{"features": []string{"f1"}, "variant": "m"})
	if err != nil {
		t.Fatalf("fingerprint map: %v", err)
	}
	if fromStruct != fromMap {
		t.Fatalf("expected equal fingerprints, got %s and %s", fromStruct, fromMap)
	}
	if len(fromStruct) != 64 {
		t.Fatalf("expected sha256 hex digest, got %q", fromStruct)
	}
	other, _ := Of(map[string]any{"features": []string{"f2"}, "variant": "m"})
	if other == fromMap {
		t.Fatalf("expected different fingerprints")
	}
}
