package issue

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Segment is one step of an issue path: either an object key or an array index.
// On the wire keys are JSON strings and indexes are JSON numbers.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a key segment.
func Key(name string) Segment {
	return Segment{key: name}
}

// Index returns an array index segment.
func Index(i int) Segment {
	return Segment{index: i, isIndex: true}
}

// IsIndex reports whether the segment addresses an array element.
func (s Segment) IsIndex() bool { return s.isIndex }

// Key returns the key for key segments and "" for index segments.
func (s Segment) Key() string {
	if s.isIndex {
		return ""
	}
	return s.key
}

// Index returns the index for index segments and -1 for key segments.
func (s Segment) Index() int {
	if !s.isIndex {
		return -1
	}
	return s.index
}

// Equal reports whether both segments address the same key or index.
func (s Segment) Equal(other Segment) bool {
	if s.isIndex != other.isIndex {
		return false
	}
	if s.isIndex {
		return s.index == other.index
	}
	return s.key == other.key
}

func (s Segment) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// MarshalJSON encodes keys as strings and indexes as numbers.
func (s Segment) MarshalJSON() ([]byte, error) {
	if s.isIndex {
		return []byte(strconv.Itoa(s.index)), nil
	}
	return sonic.ConfigStd.Marshal(s.key)
}

// UnmarshalJSON accepts a JSON string or an integral JSON number.
func (s *Segment) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("issue: empty path segment")
	}
	if trimmed[0] == '"' {
		var key string
		if err := sonic.ConfigStd.Unmarshal(trimmed, &key); err != nil {
			return fmt.Errorf("issue: decode path key: %w", err)
		}
		*s = Key(key)
		return nil
	}
	number, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		return fmt.Errorf("issue: path segment %s is neither string nor number", trimmed)
	}
	if number != float64(int(number)) {
		return fmt.Errorf("issue: path index %s is not an integer", trimmed)
	}
	*s = Index(int(number))
	return nil
}

// Path is the ordered locator of an issue, e.g. ["owner", "emails", 0].
type Path []Segment

// NewPath builds a Path from strings and ints. Other values are formatted with
// fmt.Sprint and treated as keys.
func NewPath(parts ...any) Path {
	if len(parts) == 0 {
		return Path{}
	}
	out := make(Path, 0, len(parts))
	for _, part := range parts {
		switch v := part.(type) {
		case Segment:
			out = append(out, v)
		case string:
			out = append(out, Key(v))
		case int:
			out = append(out, Index(v))
		case int64:
			out = append(out, Index(int(v)))
		default:
			out = append(out, Key(fmt.Sprint(v)))
		}
	}
	return out
}

// Head returns the first segment when it is a key. Index heads never name a
// form field.
func (p Path) Head() (string, bool) {
	if len(p) == 0 || p[0].isIndex {
		return "", false
	}
	return p[0].key, true
}

// String renders the path with dots between keys and brackets around indexes:
// owner.emails[0].
func (p Path) String() string {
	var b strings.Builder
	for i, segment := range p {
		if segment.isIndex {
			b.WriteString("[")
			b.WriteString(strconv.Itoa(segment.index))
			b.WriteString("]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(segment.key)
	}
	return b.String()
}

// MarshalJSON always emits an array, never null.
func (p Path) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("[]"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, segment := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		encoded, err := segment.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// ParsePath normalises JSON pointer, dotted and bracketed notations into a
// Path: "/owner/emails/0", "#/owner/emails/0", "$.owner.emails[0]" and
// "owner.emails.0" all yield ["owner", "emails", 0]. JSON pointer escapes
// (~0, ~1) are decoded. Numeric segments become indexes.
func ParsePath(raw string) Path {
	segments := parsePathSegments(raw)
	if len(segments) == 0 {
		return Path{}
	}
	out := make(Path, 0, len(segments))
	for _, segment := range segments {
		if isNumeric(segment) {
			if idx, err := strconv.Atoi(segment); err == nil {
				out = append(out, Index(idx))
				continue
			}
		}
		out = append(out, Key(segment))
	}
	return out
}

// PointerPath converts already-split JSON pointer tokens (as produced by
// schema engines) into a Path.
func PointerPath(tokens []string) Path {
	out := make(Path, 0, len(tokens))
	for _, token := range tokens {
		if isNumeric(token) {
			if idx, err := strconv.Atoi(token); err == nil {
				out = append(out, Index(idx))
				continue
			}
		}
		out = append(out, Key(token))
	}
	return out
}

func parsePathSegments(path string) []string {
	if path == "" {
		return nil
	}

	clean := strings.TrimSpace(path)
	clean = strings.TrimPrefix(clean, "#/")
	clean = strings.TrimPrefix(clean, "$/")
	clean = strings.TrimPrefix(clean, "$.")
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = strings.TrimPrefix(clean, "#")
		clean = strings.TrimPrefix(clean, "/")
		clean = strings.TrimPrefix(clean, ".")
		clean = strings.TrimPrefix(clean, "$")
	}

	replacer := strings.NewReplacer("[", ".", "]", "", "//", "/")
	clean = replacer.Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
