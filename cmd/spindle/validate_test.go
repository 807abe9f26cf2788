package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadTemplateFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.tmpl")
	if err := os.WriteFile(path, []byte("{Hello|Hi} {{NAME}}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	raw, err := readTemplate([]string{path})
	if err != nil {
		t.Fatalf("readTemplate() error = %v", err)
	}

	// The trailing newline must not survive into the template
	if raw != "{Hello|Hi} {{NAME}}" {
		t.Errorf("readTemplate() = %q", raw)
	}
}

func TestReadTemplateMissingFile(t *testing.T) {
	_, err := readTemplate([]string{filepath.Join(t.TempDir(), "missing.tmpl")})
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestUniqueStrings(t *testing.T) {
	got := uniqueStrings([]string{"NAME", "CITY", "NAME", "NAME", "OFFER"})
	want := []string{"NAME", "CITY", "OFFER"}

	if len(got) != len(want) {
		t.Fatalf("uniqueStrings() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("uniqueStrings()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
