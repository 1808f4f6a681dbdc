// Package docstore loads and saves the fleet and desired-state documents
// (spec §6) from disk, sniffing JSON or YAML by file extension, and
// persists them back atomically. Grounded on the teacher's state.Manager
// write-temp-then-rename pattern.
package docstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"rollout.sh/internal/rolloutmodel"
)

// FleetDocument is the on-disk shape of a fleet: the list of instances
// plus the system-wide converged version.
type FleetDocument struct {
	CodeVersion          string                        `json:"code_version" yaml:"code_version"`
	ConfigurationVersion string                        `json:"configuration_version" yaml:"configuration_version"`
	Instances            []rolloutmodel.InstanceState  `json:"instances" yaml:"instances"`
}

// DesiredDocument names the target version for a deploy.
type DesiredDocument struct {
	CodeVersion          string `json:"code_version" yaml:"code_version"`
	ConfigurationVersion string `json:"configuration_version" yaml:"configuration_version"`
}

// LoadFleet reads a FleetDocument, format sniffed from path's extension.
func LoadFleet(path string) (*FleetDocument, error) {
	var doc FleetDocument
	if err := load(path, &doc); err != nil {
		return nil, fmt.Errorf("load fleet document %s: %w", path, err)
	}
	return &doc, nil
}

// SaveFleet writes doc to path atomically: a temp file in the same
// directory, then renamed over the destination so a process that dies
// mid-write never leaves a torn file. The temp file is not fsynced
// before the rename.
func SaveFleet(path string, doc *FleetDocument) error {
	return save(path, doc)
}

// LoadDesired reads a DesiredDocument.
func LoadDesired(path string) (*DesiredDocument, error) {
	var doc DesiredDocument
	if err := load(path, &doc); err != nil {
		return nil, fmt.Errorf("load desired document %s: %w", path, err)
	}
	return &doc, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func load(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if isYAML(path) {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

func save(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp document into place: %w", err)
	}
	return nil
}
