// Package serialize renders structured entry data as bounded text and
// estimates its memory footprint.
package serialize

import (
	"math"
	"strconv"
	"strings"

	"sessionlog/internal/model"
)

const (
	// MaxDepth is the nesting level at which lists and maps stop being expanded.
	MaxDepth = 3
	// MaxDisplayEntries caps the entries rendered per list or map level.
	MaxDisplayEntries = 10
	// ErrorSentinel replaces any value that cannot be rendered.
	ErrorSentinel = "serialization_error"
	// Ellipsis marks elided depth or width.
	Ellipsis = "..."
)

// Serialize renders v as text. It reports false for a null value. Top-level
// scalars render bare; nested strings are quoted.
func Serialize(v model.Value) (out string, ok bool) {
	if v.IsNull() {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			out, ok = ErrorSentinel, true
		}
	}()

	switch v.Kind() {
	case model.KindString:
		return v.Str(), true
	case model.KindList, model.KindMap:
		var b strings.Builder
		writeNested(&b, v, 0)
		return b.String(), true
	default:
		return scalar(v), true
	}
}

// Any converts x with model.ValueOf and serializes the result. Values that
// cannot be converted render as ErrorSentinel.
func Any(x any) (string, bool) {
	v, err := model.ValueOf(x)
	if err != nil {
		return ErrorSentinel, true
	}
	return Serialize(v)
}

func writeNested(b *strings.Builder, v model.Value, depth int) {
	if depth >= MaxDepth {
		b.WriteString("{" + Ellipsis + "}")
		return
	}

	b.WriteByte('{')
	switch v.Kind() {
	case model.KindList:
		for i, item := range v.Items() {
			if !separate(b, i) {
				break
			}
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteByte('=')
			writeValue(b, item, depth+1)
		}
	case model.KindMap:
		for i, f := range v.Fields() {
			if !separate(b, i) {
				break
			}
			b.WriteString(f.Key)
			b.WriteByte('=')
			writeValue(b, f.Value, depth+1)
		}
	}
	b.WriteByte('}')
}

// separate writes the delimiter before entry i. It returns false once the
// width bound is reached, after writing the ellipsis marker.
func separate(b *strings.Builder, i int) bool {
	if i > 0 {
		b.WriteString(", ")
	}
	if i >= MaxDisplayEntries {
		b.WriteString(Ellipsis)
		return false
	}
	return true
}

func writeValue(b *strings.Builder, v model.Value, depth int) {
	switch v.Kind() {
	case model.KindString:
		b.WriteString(strconv.Quote(v.Str()))
	case model.KindList, model.KindMap:
		writeNested(b, v, depth)
	default:
		b.WriteString(scalar(v))
	}
}

func scalar(v model.Value) string {
	switch v.Kind() {
	case model.KindNumber:
		return formatNumber(v.Num())
	case model.KindBool:
		return strconv.FormatBool(v.Bool())
	case model.KindString:
		return v.Str()
	default:
		return "nil"
	}
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
