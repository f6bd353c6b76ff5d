// Package config holds the flat property map regions and engines are
// configured from.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PropertyError reports a property whose value cannot be parsed.
type PropertyError struct {
	Key   string
	Value string
	Err   error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("config: property %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *PropertyError) Unwrap() error { return e.Err }

// Properties is a flat string map with dotted keys.
// Typed accessors return def when the key is absent or blank.
type Properties map[string]string

// Lookup returns the trimmed value for key.
func (p Properties) Lookup(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p Properties) String(key, def string) string {
	if v, ok := p.Lookup(key); ok {
		return v
	}
	return def
}

func (p Properties) Int(key string, def int) (int, error) {
	v, ok := p.Lookup(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, &PropertyError{Key: key, Value: v, Err: err}
	}
	return n, nil
}

func (p Properties) Bool(key string, def bool) (bool, error) {
	v, ok := p.Lookup(key)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, &PropertyError{Key: key, Value: v, Err: err}
	}
	return b, nil
}

// Duration accepts Go duration syntax ("30s") or a bare number of seconds.
func (p Properties) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := p.Lookup(key)
	if !ok {
		return def, nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, &PropertyError{Key: key, Value: v, Err: err}
	}
	return d, nil
}

// WithPrefix returns the properties under prefix with the prefix (and the
// following dot) stripped.
func (p Properties) WithPrefix(prefix string) Properties {
	out := Properties{}
	pfx := prefix + "."
	for k, v := range p {
		if rest, ok := strings.CutPrefix(k, pfx); ok {
			out[rest] = v
		}
	}
	return out
}

// Qualify joins key parts with dots, skipping empty parts.
func Qualify(parts ...string) string {
	var b strings.Builder
	for _, s := range parts {
		if s == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s)
	}
	return b.String()
}
