package treecache

import "strings"

// Fqn is the path of a node in the tree: a list of element names from the
// root down.
type Fqn []string

// Root is the empty path.
var Root = Fqn{}

func NewFqn(elems ...string) Fqn {
	return append(Fqn(nil), elems...)
}

// RegionFqn is the node a region lives under: prefix, name and kind
// discriminator as three separate elements. Elements are never split, so
// distinct triples always give distinct paths.
func RegionFqn(name, prefix, discriminator string) Fqn {
	return Fqn{prefix, name, discriminator}
}

func (f Fqn) Child(elem string) Fqn {
	out := make(Fqn, len(f)+1)
	copy(out, f)
	out[len(f)] = elem
	return out
}

// Parent returns Root for Root.
func (f Fqn) Parent() Fqn {
	if len(f) == 0 {
		return Root
	}
	return f[:len(f)-1:len(f)-1]
}

func (f Fqn) Equal(o Fqn) bool {
	if len(f) != len(o) {
		return false
	}
	for i := range f {
		if f[i] != o[i] {
			return false
		}
	}
	return true
}

// IsChildOf reports whether f lies strictly below parent.
func (f Fqn) IsChildOf(parent Fqn) bool {
	return len(f) > len(parent) && f[:len(parent)].Equal(parent)
}

// String renders "/a/b/c". '/' and '\' inside elements are escaped with
// '\', so String is injective and ParseFqn reverses it.
func (f Fqn) String() string {
	if len(f) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, e := range f {
		b.WriteByte('/')
		for i := 0; i < len(e); i++ {
			if c := e[i]; c == '/' || c == '\\' {
				b.WriteByte('\\')
			}
			b.WriteByte(e[i])
		}
	}
	return b.String()
}

// ParseFqn parses the output of Fqn.String.
func ParseFqn(s string) (Fqn, bool) {
	if s == "/" {
		return Root, true
	}
	if !strings.HasPrefix(s, "/") {
		return nil, false
	}
	var (
		out Fqn
		cur strings.Builder
	)
	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 >= len(s) {
				return nil, false
			}
			i++
			cur.WriteByte(s[i])
		case '/':
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(out, cur.String()), true
}
