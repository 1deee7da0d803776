package parse

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/signadot/beanmap/ir"
)

func TestParseJSON(t *testing.T) {
	node, err := Parse([]byte(`{"b": 1, "a": [true, null, "x", 1.5]}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if node.Fields[0].String != "b" {
		t.Errorf("key order not kept: first key %q", node.Fields[0].String)
	}
	want := map[string]any{"b": int64(1), "a": []any{true, nil, "x", 1.5}}
	if diff := cmp.Diff(want, node.ToAny()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSONTrailing(t *testing.T) {
	if _, err := Parse([]byte(`{} {}`)); err == nil {
		t.Errorf("expected error for trailing document")
	}
}

func TestParseYAML(t *testing.T) {
	src := "\"@class\": example.Person\nname: Tom\nnumbers:\n- name: Mobile\n  number: \"123\"\nage: 42\n"
	node, err := Parse([]byte(src), ParseYAML())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tag, ok := ir.TypeTag(node); !ok || tag != "example.Person" {
		t.Errorf("TypeTag() = %q, %v", tag, ok)
	}
	var keys []string
	for _, f := range node.Fields {
		keys = append(keys, f.String)
	}
	if diff := cmp.Diff([]string{"@class", "name", "numbers", "age"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if got := ir.Get(node, "age").ToAny(); got != int64(42) {
		t.Errorf("age = %v (%T)", got, got)
	}
}
