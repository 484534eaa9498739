// Package catalog loads the grid-dimension document that fixes how large a
// simulator's static-size Snapshot fields are. Unlike the Snapshot fields
// themselves, the catalog is not diffed. Its digest identifies the document;
// history.Manager holds no catalog and does not compare digests.
package catalog

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema/dimensions.schema.json
var dimensionsSchemaJSON []byte

// Dimensions fixes the lengths of every static-size Snapshot field for one
// simulator. WAir and HAir give the air/heat/gravity grid dimensions
// (W_AIR x H_AIR cells); Channels is the WirelessData table length; NPart is
// the Particles hard cap; MaxStickmen bounds the Stickmen table.
type Dimensions struct {
	WAir         int `yaml:"w_air" json:"w_air"`
	HAir         int `yaml:"h_air" json:"h_air"`
	Channels     int `yaml:"channels" json:"channels"`
	NPart        int `yaml:"n_part" json:"n_part"`
	MaxStickmen  int `yaml:"max_stickmen" json:"max_stickmen"`
}

// Catalog is a loaded, validated Dimensions document plus the digest of its
// canonical JSON form.
type Catalog struct {
	Dimensions Dimensions
	Digest     string
}

// Load reads a YAML dimensions document from path, validates the document as
// written (before it is mapped onto Dimensions) against the embedded JSON
// Schema, and computes its digest over the canonical JSON form of the parsed
// Dimensions, so two files that differ only in formatting share a digest.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc Dimensions
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}

	if err := validate(raw, doc); err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}

	canon, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	return &Catalog{
		Dimensions: doc,
		Digest:     sha256Hex(canon),
	}, nil
}

func validate(raw []byte, doc Dimensions) error {
	schema, err := jsonschema.CompileString("dimensions.schema.json", string(dimensionsSchemaJSON))
	if err != nil {
		return fmt.Errorf("compile embedded schema: %w", err)
	}

	// Validate the decoded YAML tree rather than doc: doc has every missing
	// field filled with its zero value, which would hide it from "required".
	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return err
	}
	canon, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(canon, &v); err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if doc.WAir <= 0 || doc.HAir <= 0 {
		return fmt.Errorf("w_air and h_air must be positive, got %d x %d", doc.WAir, doc.HAir)
	}
	if doc.NPart <= 0 {
		return fmt.Errorf("n_part must be positive, got %d", doc.NPart)
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
