package mapping

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Scan derives a definition for t from struct tags and the Tabler interface.
// It is used when no fluent definition is registered for t. Scanning never
// fails: unknown or malformed markers are skipped.
//
// Tag grammar, with tagKey "lattice":
//
//	Name    string `lattice:"name"`                 // column name
//	Count   int    `lattice:",type=S"`              // storage type override
//	Secret  string `lattice:"-"`                    // ignored
//	Temp    string `lattice:",ignore"`              // ignored
//	Org     string `lattice:"org_id,partition"`     // partition key
//	Created int64  `lattice:",clustering=1"`        // clustering key, position 1
func Scan(t reflect.Type, tagKey string) *Definition {
	t = structType(t)
	d := newDefinition(t)
	table, err := accessorsFor(t)
	if err != nil {
		d.errs = append(d.errs, err)
		return d
	}
	if tagKey == "" {
		tagKey = DefaultTagKey
	}

	if tabler, ok := reflect.New(t).Interface().(Tabler); ok {
		if name := tabler.TableName(); name != "" {
			d.setTable(name)
		}
	}

	var partition, clustering []taggedKey
	for _, p := range table.props {
		tag, ok := p.tag.Lookup(tagKey)
		if !ok {
			continue
		}
		m := parseTag(tag)
		if m.override != (ColumnOverride{}) {
			d.override(p.name).merge(m.override)
		}
		if m.partition != nil {
			partition = append(partition, taggedKey{prop: p.name, pos: *m.partition})
		}
		if m.clustering != nil {
			clustering = append(clustering, taggedKey{prop: p.name, pos: *m.clustering})
		}
	}

	d.partition = orderKeys(partition)
	d.clustering = orderKeys(clustering)
	return d
}

type taggedKey struct {
	prop string
	pos  int
}

// orderKeys sorts by declared position; equal positions keep field order.
func orderKeys(keys []taggedKey) []string {
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].pos < keys[j].pos })
	props := make([]string, 0, len(keys))
	for _, k := range keys {
		props = append(props, k.prop)
	}
	return props
}

type tagMarkers struct {
	override   ColumnOverride
	partition  *int
	clustering *int
}

func parseTag(tag string) tagMarkers {
	var m tagMarkers
	if tag == "-" {
		ignore := true
		m.override.Ignore = &ignore
		return m
	}

	parts := strings.Split(tag, ",")
	if name := strings.TrimSpace(parts[0]); name != "" {
		m.override.Name = &name
	}
	for _, opt := range parts[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "type":
			if st, ok := ParseStorageType(strings.ToUpper(value)); ok {
				m.override.StorageType = &st
			}
		case "ignore":
			ignore := value == "" || value == "true"
			if value == "" || value == "true" || value == "false" {
				m.override.Ignore = &ignore
			}
		case "partition":
			m.partition = keyPosition(value)
		case "clustering":
			m.clustering = keyPosition(value)
		}
	}
	return m
}

// keyPosition parses an optional key position. Missing or malformed positions
// default to 0.
func keyPosition(value string) *int {
	pos, err := strconv.Atoi(value)
	if err != nil || pos < 0 {
		pos = 0
	}
	return &pos
}
