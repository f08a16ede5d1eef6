package cbor

import "strings"

// fieldTag is the parsed form of a `cbor:"..."` struct tag: an optional
// rename as the first comma-separated segment, followed by bare flags or
// key=value options.
type fieldTag struct {
	rename string
	opts   map[string]string
	flags  map[string]bool
}

// parseFieldTag parses a struct field's cbor tag value. An empty tag is
// valid and yields a zero fieldTag (no rename, no options).
func parseFieldTag(tag string) fieldTag {
	ft := fieldTag{opts: map[string]string{}, flags: map[string]bool{}}
	if tag == "" {
		return ft
	}

	parts := strings.Split(tag, ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i == 0 && !strings.Contains(part, "=") && !isKnownFlag(part) {
			ft.rename = part
			continue
		}
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			ft.opts[part[:eq]] = part[eq+1:]
		} else {
			ft.flags[part] = true
		}
	}
	return ft
}

var knownFlags = map[string]bool{
	"transparent":         true,
	"untagged":            true,
	"as_array":            true,
	"as_struct":           true,
	"embed":               true,
	"optional":            true,
	"skip":                true,
	"skip_serializing_if": true,
	"missing":             true,
	"allow_unknown":       true,
	"no_default":          true,
	"with_default":        true,
	"serialize_with":      true,
	"deserialize_with":    true,
}

func isKnownFlag(s string) bool {
	return knownFlags[s]
}

func (ft fieldTag) has(name string) bool {
	if ft.flags[name] {
		return true
	}
	_, ok := ft.opts[name]
	return ok
}

func (ft fieldTag) get(name string) (string, bool) {
	v, ok := ft.opts[name]
	return v, ok
}
