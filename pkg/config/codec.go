package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileFormat is the on-disk encoding of a config file.
type FileFormat int

const (
	FormatJSON FileFormat = iota
	FormatYAML
)

func (f FileFormat) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatFor picks the encoding from a file extension. Anything that is not
// .yaml or .yml is JSON.
func FormatFor(path string) FileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// decodeDocument parses a config document into dotted keys. Nested
// objects become key segments and arrays become multi-valued keys:
//
//	{"core": {"digest": "sha256"}, "remote": {"origin": {"fetch": ["a", "b"]}}}
//
// yields core.digest=[sha256] and remote.origin.fetch=[a b].
func decodeDocument(data []byte, format FileFormat) (map[string][]string, error) {
	doc := make(map[string]any)
	if len(strings.TrimSpace(string(data))) > 0 {
		var err error
		switch format {
		case FormatYAML:
			err = yaml.Unmarshal(data, &doc)
		default:
			err = json.Unmarshal(data, &doc)
		}
		if err != nil {
			return nil, err
		}
	}

	out := make(map[string][]string)
	if err := flatten("", doc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string][]string) error {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		case []any:
			for _, item := range val {
				s, err := scalar(key, item)
				if err != nil {
					return err
				}
				out[normalizeKey(key)] = append(out[normalizeKey(key)], s)
			}
		default:
			s, err := scalar(key, val)
			if err != nil {
				return err
			}
			out[normalizeKey(key)] = append(out[normalizeKey(key)], s)
		}
	}
	return nil
}

func scalar(key string, v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("key %s: unsupported value of type %T", key, v)
	}
}

// encodeDocument is the inverse of decodeDocument. Keys with a single
// value are written as scalars.
func encodeDocument(entries map[string][]string, format FileFormat) ([]byte, error) {
	doc := make(map[string]any)

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		values := entries[key]
		if len(values) == 0 {
			continue
		}
		parts := splitKey(key)
		node := doc
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[p] = child
			}
			node = child
		}

		name := parts[len(parts)-1]
		if len(values) == 1 {
			node[name] = values[0]
		} else {
			node[name] = append([]string(nil), values...)
		}
	}

	if format == FormatYAML {
		return yaml.Marshal(doc)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// splitKey breaks section.sub.section.name into section, "sub.section" and
// name so dotted subsections nest one level deep.
func splitKey(key string) []string {
	parts := strings.Split(key, ".")
	if len(parts) <= 2 {
		return parts
	}
	return []string{parts[0], strings.Join(parts[1:len(parts)-1], "."), parts[len(parts)-1]}
}

// normalizeKey lowercases the section and the variable name. Subsections
// keep their case.
func normalizeKey(key string) string {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return key
	}
	parts[0] = strings.ToLower(parts[0])
	parts[len(parts)-1] = strings.ToLower(parts[len(parts)-1])
	return strings.Join(parts, ".")
}
