package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the static, per-deployment portion of the reconciliation
// service manifest: the parts that don't depend on request language or
// the wired engines (service identity, id/schema spaces, default type).
// It's loaded once at startup from a YAML file so operators can retarget
// the service at a different Wikibase instance without a rebuild.
type Manifest struct {
	Name                string `yaml:"name"`
	IdentifierIRISpace  string `yaml:"identifier_iri_space"`
	SchemaIRISpace      string `yaml:"schema_iri_space"`
	DefaultTypeEntity   string `yaml:"default_type_entity"`
	DefaultTypeName     string `yaml:"default_type_name"`
	PropertyForThisType string `yaml:"property_for_this_type"`
}

// DefaultManifest mirrors the upstream Wikidata deployment's manifest
// values, used when no manifest file is configured.
func DefaultManifest() Manifest {
	return Manifest{
		Name:                "Wikidata reconciliation service",
		IdentifierIRISpace:  "http://www.wikidata.org/prop/direct/",
		SchemaIRISpace:      "http://www.wikidata.org/entity/",
		DefaultTypeEntity:   "Q35120",
		DefaultTypeName:     "entity",
		PropertyForThisType: "P1963",
	}
}

// LoadManifest reads a YAML manifest file. An empty path returns the
// default manifest unchanged.
func LoadManifest(path string) (Manifest, error) {
	m := DefaultManifest()
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
