package config

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a YAML document and flattens nested mappings into dotted
// keys:
//
//	l2cache:
//	  lock_timeout: 30s
//
// becomes l2cache.lock_timeout=30s. Sequences are indexed (a.0, a.1).
func LoadYAML(r io.Reader) (Properties, error) {
	var root any
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if err == io.EOF {
			return Properties{}, nil
		}
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	p := Properties{}
	flatten(p, "", root)
	return p, nil
}

// LoadYAMLFile is LoadYAML on the named file.
func LoadYAMLFile(path string) (Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

func flatten(p Properties, prefix string, v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, sub := range t {
			flatten(p, Qualify(prefix, k), sub)
		}
	case []any:
		for i, sub := range t {
			flatten(p, Qualify(prefix, strconv.Itoa(i)), sub)
		}
	case nil:
		if prefix != "" {
			p[prefix] = ""
		}
	default:
		p[prefix] = fmt.Sprint(t)
	}
}
