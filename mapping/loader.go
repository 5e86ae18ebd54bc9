package mapping

import (
	"fmt"
	"maps"
	"os"
	"reflect"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefinitionFile is the YAML form of a set of fluent definitions:
//
//	mappings:
//	  - type: User
//	    table: users
//	    partitionKey: ID
//	    clusteringKey: [CreatedAt]
//	    columns:
//	      ID: {name: userid}
//	      Password: {ignore: true}
//	      Age: {type: S}
type DefinitionFile struct {
	Mappings []TypeDefinition `yaml:"mappings"`
}

// TypeDefinition configures one struct type.
type TypeDefinition struct {
	Type            string                      `yaml:"type"`
	Table           string                      `yaml:"table,omitempty"`
	PartitionKey    StringOrList                `yaml:"partitionKey,omitempty"`
	ClusteringKey   StringOrList                `yaml:"clusteringKey,omitempty"`
	ExplicitColumns bool                        `yaml:"explicitColumns,omitempty"`
	Columns         map[string]ColumnDefinition `yaml:"columns,omitempty"`
}

// ColumnDefinition configures the facets of one column. Omitted facets are
// left unset.
type ColumnDefinition struct {
	Name   *string `yaml:"name,omitempty"`
	Type   *string `yaml:"type,omitempty"`
	Ignore *bool   `yaml:"ignore,omitempty"`
}

// StringOrList accepts a single string or a list of strings.
type StringOrList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringOrList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string
		if err := node.Decode(&str); err != nil {
			return err
		}
		if str == "" {
			*s = StringOrList{}
		} else {
			*s = StringOrList{str}
		}
		return nil

	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil

	default:
		return fmt.Errorf("expected string or list, got node kind %v", node.Kind)
	}
}

// LoadDefinitions reads a YAML definition file. Each entry's type is matched
// against the types of samples by simple name ("User") or qualified name
// ("models.User"). A simple name shared by samples from different packages
// must be written qualified.
func LoadDefinitions(path string, samples ...any) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition file %s: %w", path, err)
	}
	return ParseDefinitions(data, samples...)
}

// ParseDefinitions parses YAML definition data. See LoadDefinitions.
func ParseDefinitions(data []byte, samples ...any) ([]*Definition, error) {
	var file DefinitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse definition YAML: %w", err)
	}

	known := make(map[string]reflect.Type, 2*len(samples))
	ambiguous := make(map[string]bool)
	for _, s := range samples {
		t := structType(reflect.TypeOf(s))
		if t == nil || t.Kind() != reflect.Struct {
			return nil, fmt.Errorf("%w: sample %T", ErrNotStruct, s)
		}
		if prev, ok := known[t.Name()]; ok && prev != t {
			ambiguous[t.Name()] = true
		}
		known[t.Name()] = t
		known[t.String()] = t
	}

	defs := make([]*Definition, 0, len(file.Mappings))
	for _, td := range file.Mappings {
		if ambiguous[td.Type] {
			return nil, &ConfigurationError{Type: td.Type, Reason: "name matches several samples; use the package-qualified name"}
		}
		t, ok := known[td.Type]
		if !ok {
			return nil, &ConfigurationError{Type: td.Type, Reason: "type not among the provided samples"}
		}
		d, err := td.definition(t)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func (td TypeDefinition) definition(t reflect.Type) (*Definition, error) {
	d := newDefinition(t)
	if td.Table != "" {
		d.setTable(td.Table)
	}
	d.addPartition(td.PartitionKey...)
	d.addClustering(td.ClusteringKey...)
	d.explicitColumns = td.ExplicitColumns

	for _, prop := range slices.Sorted(maps.Keys(td.Columns)) {
		cd := td.Columns[prop]
		o := ColumnOverride{Name: cd.Name, Ignore: cd.Ignore}
		if cd.Type != nil {
			st, ok := ParseStorageType(strings.ToUpper(*cd.Type))
			if !ok {
				return nil, &ConfigurationError{Type: t.String(), Property: prop, Reason: "unknown storage type " + *cd.Type}
			}
			o.StorageType = &st
		}
		d.setColumn(prop, o)
	}
	return d, d.Err()
}

// DefineFile loads a YAML definition file and registers every definition in it.
func (r *Registry) DefineFile(path string, samples ...any) error {
	defs, err := LoadDefinitions(path, samples...)
	if err != nil {
		return err
	}
	for _, d := range defs {
		if err := r.Define(d); err != nil {
			return err
		}
	}
	return nil
}
