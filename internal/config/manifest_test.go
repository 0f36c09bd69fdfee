package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest_EmptyPathReturnsDefault(t *testing.T) {
	m, err := LoadManifest("")
	if err != nil {
		t.Fatalf("LoadManifest(\"\") returned error: %v", err)
	}
	if m != DefaultManifest() {
		t.Errorf("expected default manifest, got %+v", m)
	}
}

func TestLoadManifest_OverridesFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	contents := `
name: Test reconciliation service
identifier_iri_space: http://example.org/prop/direct/
schema_iri_space: http://example.org/entity/
default_type_entity: Q1
default_type_name: thing
property_for_this_type: P1963
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write manifest fixture: %v", err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest(%q) returned error: %v", path, err)
	}
	if m.Name != "Test reconciliation service" {
		t.Errorf("expected overridden name, got %q", m.Name)
	}
	if m.DefaultTypeEntity != "Q1" {
		t.Errorf("expected overridden default type entity, got %q", m.DefaultTypeEntity)
	}
}

func TestLoadManifest_MissingFileErrors(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing manifest file")
	}
}
