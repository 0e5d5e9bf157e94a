// Package literal renders descriptor values as C initializer text.
//
// Nothing here validates its input. A value of the wrong shape is a bug in
// the caller, so the encoders render whatever they are given.
package literal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vermilion00/libhmk/pkg/types"
)

// EncodeArray renders v as a brace initializer, recursing into nested
// arrays: [[1,2],[3,4]] becomes {{1, 2}, {3, 4}}.
func EncodeArray(v types.Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

// EncodeStruct renders an object as a designated initializer,
// {.name = value, ...}, keeping the member order of the source document.
func EncodeStruct(v types.Value) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range v.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('.')
		b.WriteString(f.Name)
		b.WriteString(" = ")
		writeValue(&b, f.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// Scalar renders a single value.
func Scalar(v types.Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v types.Value) {
	switch v.Kind() {
	case types.Array:
		b.WriteByte('{')
		for i, item := range v.Items() {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, item)
		}
		b.WriteByte('}')
	case types.Object:
		b.WriteString(EncodeStruct(v))
	case types.Null:
		b.WriteString("NULL")
	default:
		// Strings stay bare; callers add quotes where C needs them.
		b.WriteString(v.Text())
	}
}

// Ints builds an array value from a slice of ints.
func Ints(xs []int) types.Value {
	items := make([]types.Value, len(xs))
	for i, x := range xs {
		items[i] = types.NewScalar(strconv.Itoa(x))
	}
	return types.NewArray(items...)
}

// IntMatrix builds a nested array value from rows of ints.
func IntMatrix(rows [][]int) types.Value {
	items := make([]types.Value, len(rows))
	for i, row := range rows {
		items[i] = Ints(row)
	}
	return types.NewArray(items...)
}

// Strings builds an array value of bare tokens.
func Strings(xs []string) types.Value {
	items := make([]types.Value, len(xs))
	for i, x := range xs {
		items[i] = types.NewString(x)
	}
	return types.NewArray(items...)
}

// Quote renders s as a C string literal. The result holds no single
// quote, so it can sit inside a -DNAME='value' flag: ' becomes \047.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `'`, `\047`)
	return `"` + r.Replace(s) + `"`
}

// Transpose swaps rows and columns of a rectangular matrix. Ragged input is
// rejected. An empty matrix transposes to an empty matrix.
func Transpose(m [][]int) ([][]int, error) {
	if len(m) == 0 {
		return [][]int{}, nil
	}
	cols := len(m[0])
	for i, row := range m {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
	}

	out := make([][]int, cols)
	for c := range out {
		out[c] = make([]int, len(m))
		for r := range m {
			out[c][r] = m[r][c]
		}
	}
	return out, nil
}
