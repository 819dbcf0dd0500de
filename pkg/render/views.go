package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Views maps a locale (e.g. "en-US") to its tree of views.
// Leaves are strings (templates) or lists of strings (variants).
type Views map[string]map[string]any

// Merge copies every locale and key of other into v. Keys of other win.
func (v Views) Merge(other Views) {
	for locale, tree := range other {
		if v[locale] == nil {
			v[locale] = map[string]any{}
		}
		mergeTree(v[locale], tree)
	}
}

func mergeTree(dst, src map[string]any) {
	for k, sv := range src {
		sm, srcIsMap := sv.(map[string]any)
		dm, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeTree(dm, sm)
			continue
		}
		dst[k] = sv
	}
}

// LoadFiles reads view files (.yaml, .yml or .json) and merges them in order.
// Each file holds a map of locale to view tree.
func LoadFiles(paths ...string) (Views, error) {
	out := Views{}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read views %s: %w", p, err)
		}
		v, err := Parse(data, filepath.Ext(p))
		if err != nil {
			return nil, fmt.Errorf("parse views %s: %w", p, err)
		}
		out.Merge(v)
	}
	return out, nil
}

// Parse decodes views from data. ext selects the format (".json" or YAML otherwise).
func Parse(data []byte, ext string) (Views, error) {
	var raw map[string]any
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}

	out := Views{}
	for locale, tree := range raw {
		m, ok := tree.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("locale %q: expected a map of views, got %T", locale, tree)
		}
		out[locale] = m
	}
	return out, nil
}
