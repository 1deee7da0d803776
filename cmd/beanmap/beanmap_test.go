package main

import (
	"strings"
	"testing"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/signadot/beanmap/format"
	"github.com/signadot/beanmap/ir"
)

func TestSplitDocs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		f    format.Format
		want int
	}{
		{"json values", `{"a":1} [2] "x"`, format.JSONFormat, 3},
		{"json empty", ``, format.JSONFormat, 0},
		{"yaml documents", "a: 1\n---\nb: 2\n", format.YAMLFormat, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := splitDocs([]byte(tt.in), tt.f)
			if err != nil {
				t.Fatalf("splitDocs() error = %v", err)
			}
			if len(docs) != tt.want {
				t.Errorf("splitDocs() = %d documents, want %d", len(docs), tt.want)
			}
		})
	}
}

func TestCanonText(t *testing.T) {
	docs, err := splitDocs([]byte(`{"name":"x","@class":"T"}`), format.JSONFormat)
	if err != nil {
		t.Fatalf("splitDocs() error = %v", err)
	}
	got, err := canonText(docs[0])
	if err != nil {
		t.Fatalf("canonText() error = %v", err)
	}
	if i, j := strings.Index(got, ir.TypeTagKey), strings.Index(got, "name"); i < 0 || i > j {
		t.Errorf("canonText() = %s, want the type tag first", got)
	}
	if !strings.Contains(got, "\n  ") {
		t.Errorf("canonText() = %s, want indented output", got)
	}
	if _, ok := ir.TypeTag(docs[0]); ok {
		t.Error("canonText() modified its input")
	}
}

func TestLineDiff(t *testing.T) {
	out, differs := lineDiff("a\nb\nc\n", "a\nx\nc\n")
	if !differs {
		t.Fatal("lineDiff() found no difference")
	}
	want := " a\n-b\n+x\n c\n"
	if out != want {
		t.Errorf("lineDiff() = %q, want %q", out, want)
	}
	if _, differs := lineDiff("a\n", "a\n"); differs {
		t.Error("lineDiff() of equal texts differs")
	}
}

func TestApplyPatch(t *testing.T) {
	ops, err := jsonpatch.DecodePatch([]byte(`[{"op":"replace","path":"/@class","value":"U"}]`))
	if err != nil {
		t.Fatalf("DecodePatch() error = %v", err)
	}
	docs, err := splitDocs([]byte(`{"@class":"T","v":1}`), format.JSONFormat)
	if err != nil {
		t.Fatalf("splitDocs() error = %v", err)
	}
	res, err := applyPatch(ops, docs[0])
	if err != nil {
		t.Fatalf("applyPatch() error = %v", err)
	}
	if tag, ok := ir.TypeTag(res); !ok || tag != "U" {
		t.Errorf("TypeTag() = %q, %v", tag, ok)
	}
}
