package client

import (
	"fmt"
	"sort"
	"strings"
)

// CommonSection is the headers sub-key applied to every method.
const CommonSection = "common"

// methodSections are stripped from flattened headers regardless of the
// resolved method.
var methodSections = []string{"delete", "get", "head", "post", "put", "patch"}

// Headers maps header names to values. A value is either a scalar (normally a
// string) or a nested section: "common" or a lower-case method name holding
// headers that apply only to that method.
type Headers map[string]any

// Set stores a scalar header under key, replacing any entry with the same name
// in a different case.
func (h Headers) Set(key, value string) {
	h.put(key, value)
}

func (h Headers) put(key string, value any) {
	for k, v := range h {
		if _, nested := asSection(v); !nested && k != key && strings.EqualFold(k, key) {
			delete(h, k)
		}
	}
	h[key] = value
}

// sortedKeys fixes the winner when one source spells a name in several cases.
func sortedKeys(h Headers) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the scalar header named key, matched case-insensitively.
func (h Headers) Get(key string) string {
	if v, ok := h[key]; ok {
		if s, scalar := scalarValue(v); scalar {
			return s
		}
	}
	for k, v := range h {
		if strings.EqualFold(k, key) {
			if s, scalar := scalarValue(v); scalar {
				return s
			}
		}
	}
	return ""
}

// Has reports whether a scalar header named key exists.
func (h Headers) Has(key string) bool {
	for k, v := range h {
		if _, nested := asSection(v); !nested && strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// Del removes every scalar header matching key case-insensitively.
func (h Headers) Del(key string) {
	for k, v := range h {
		if _, nested := asSection(v); !nested && strings.EqualFold(k, key) {
			delete(h, k)
		}
	}
}

// Section returns the nested headers stored under name, or nil.
func (h Headers) Section(name string) Headers {
	sec, _ := asSection(h[name])
	return sec
}

// SetIn stores a header inside the named section, creating it if needed.
func (h Headers) SetIn(section, key, value string) {
	sec, ok := asSection(h[section])
	if !ok {
		sec = Headers{}
	}
	sec.Set(key, value)
	h[section] = sec
}

// Values returns the scalar headers as strings, skipping sections.
func (h Headers) Values() map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if s, ok := scalarValue(v); ok {
			out[k] = s
		}
	}
	return out
}

// Clone returns a deep copy.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	out := make(Headers, len(h))
	for k, v := range h {
		if sec, ok := asSection(v); ok {
			v = sec.Clone()
		}
		out[k] = v
	}
	return out
}

// Flatten merges, in increasing precedence, the common section, the section
// named after method and the top-level entries, then drops all section keys.
// Applying it to already flattened headers is a no-op.
func (h Headers) Flatten(method string) Headers {
	method = strings.ToLower(method)
	out := Headers{}
	for _, src := range []Headers{h.Section(CommonSection), h.Section(method), h} {
		for _, k := range sortedKeys(src) {
			v := src[k]
			if sec, ok := asSection(v); ok {
				out[k] = sec.Clone()
				continue
			}
			out.put(k, v)
		}
	}
	delete(out, CommonSection)
	delete(out, method)
	for _, m := range methodSections {
		delete(out, m)
	}
	return out
}

func asSection(v any) (Headers, bool) {
	switch s := v.(type) {
	case Headers:
		return s, true
	case map[string]any:
		return Headers(s), true
	case map[string]string:
		out := make(Headers, len(s))
		for k, val := range s {
			out[k] = val
		}
		return out, true
	}
	return nil, false
}

func scalarValue(v any) (string, bool) {
	if _, nested := asSection(v); nested {
		return "", false
	}
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		return s, true
	case []string:
		return strings.Join(s, ", "), true
	default:
		return fmt.Sprint(s), true
	}
}
