package logger

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type field struct {
	key string
	val any
}

// fieldSet is an insertion ordered map; a later set overwrites in place.
type fieldSet struct {
	index map[string]int
	list  []field
}

func newFieldSet(capacity int) *fieldSet {
	return &fieldSet{
		index: make(map[string]int, capacity),
		list:  make([]field, 0, capacity),
	}
}

func (fs *fieldSet) set(key string, val any) {
	if i, ok := fs.index[key]; ok {
		fs.list[i].val = val
		return
	}
	fs.index[key] = len(fs.list)
	fs.list = append(fs.list, field{key: key, val: val})
}

func (fs *fieldSet) setDefault(key string, val any) {
	if _, ok := fs.index[key]; !ok {
		fs.set(key, val)
	}
}

func (fs *fieldSet) get(key string) (any, bool) {
	i, ok := fs.index[key]
	if !ok {
		return nil, false
	}
	return fs.list[i].val, true
}

func (fs *fieldSet) str(key string) string {
	v, ok := fs.get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (fs *fieldSet) remove(key string) {
	if i, ok := fs.index[key]; ok {
		fs.list[i].val = nil
	}
}

// sorted drops empty values and orders ranked keys first, then the rest by name.
func (fs *fieldSet) sorted(rank map[string]int) []field {
	out := make([]field, 0, len(fs.list))
	for _, f := range fs.list {
		if isEmpty(f.val) {
			continue
		}
		out = append(out, f)
	}
	unranked := len(rank)
	pos := func(key string) int {
		if r, ok := rank[key]; ok {
			return r
		}
		return unranked
	}
	slices.SortStableFunc(out, func(a, b field) int {
		if c := cmp.Compare(pos(a.key), pos(b.key)); c != 0 {
			return c
		}
		if pos(a.key) == unranked {
			return strings.Compare(a.key, b.key)
		}
		return 0
	})
	return out
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case fmt.Stringer:
		return x.String() == ""
	}
	return false
}

func encodeJSON(fields []field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.val)
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", f.key, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeKV(fields []field) []byte {
	var buf bytes.Buffer
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(f.key)
		buf.WriteByte('=')
		buf.WriteString(kvValue(f.val))
	}
	return buf.Bytes()
}

func kvValue(v any) string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		s = fmt.Sprint(x)
	}
	if strings.ContainsFunc(s, needsQuote) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"'
}
