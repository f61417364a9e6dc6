// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Doc: {
	name: string & !=""
	items?: [...[string, string]]
	...
}
`

type testDoc struct {
	Name  string     `json:"name"`
	Items [][]string `json:"items"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	doc, err := ParseAndDecode[testDoc]([]byte(testSchema), []byte(`{"name": "hello", "items": [["a", "b"]], "other": 1}`), "#Doc")
	if err != nil {
		t.Fatalf("ParseAndDecode() error = %v", err)
	}
	if doc.Name != "hello" || len(doc.Items) != 1 || doc.Items[0][1] != "b" {
		t.Errorf("decoded = %+v", doc)
	}
}

func TestParseAndDecode_SchemaViolation(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[testDoc]([]byte(testSchema), []byte(`{"name": "x", "items": [["a", "b", "c"]]}`), "#Doc",
		WithFilename("doc.json"))
	if err == nil {
		t.Fatal("expected validation error for a three-element pair")
	}
	if !strings.HasPrefix(err.Error(), "doc.json: ") {
		t.Errorf("error should start with the file name, got: %v", err)
	}
	if !strings.Contains(err.Error(), "items[0]") {
		t.Errorf("error should contain the JSON path, got: %v", err)
	}
}

func TestParseAndDecode_TooLarge(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[testDoc]([]byte(testSchema), []byte(`{"name": "x"}`), "#Doc", WithMaxFileSize(4))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestUnify_Concrete(t *testing.T) {
	t.Parallel()

	data := []byte(`name: string`)
	if _, err := Unify([]byte(testSchema), data, "#Doc"); err != nil {
		t.Errorf("Unify() error = %v, want incomplete values accepted", err)
	}
	if _, err := Unify([]byte(testSchema), data, "#Doc", WithConcrete(true)); err == nil {
		t.Error("Unify(WithConcrete(true)) should reject a non-concrete name")
	}
}

func TestDecodeMap(t *testing.T) {
	t.Parallel()

	m, err := DecodeMap([]byte("id: \"org.world.Hello\"\nfiles: [[\"hello\", \"/bin/hello\"]]\n"), "hello.cue")
	if err != nil {
		t.Fatalf("DecodeMap() error = %v", err)
	}
	if m["id"] != "org.world.Hello" {
		t.Errorf("id = %v", m["id"])
	}
	if _, ok := m["files"].([]any); !ok {
		t.Errorf("files decoded as %T, want []any", m["files"])
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("FormatError(nil) should be nil")
	}
	err := FormatError(errors.New("boom"), "x.cue")
	if err == nil || err.Error() != "x.cue: boom" {
		t.Errorf("FormatError(non-CUE) = %v", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"id"}, "id"},
		{[]string{"files", "0", "1"}, "files[0][1]"},
		{[]string{"modules", "2", "name"}, "modules[2].name"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
