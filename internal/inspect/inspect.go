// Package inspect decodes the bytes under the cursor as fixed-width
// numbers. It never looks at file structure.
package inspect

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strings"
)

// Width is how many bytes Decode wants to see.
const Width = 16

// Missing is shown for a value that runs past the end of the file.
const Missing = "-"

// Field is one labelled value.
type Field struct {
	Label string
	Value string
}

// Values is everything the inspector panel shows.
type Values struct {
	BigEndian bool
	// Bits holds bytes 0-7 and 8-15 as space separated binary.
	Bits   [2]string
	Ints   []Field
	Wide   []Field
	Floats []Field
}

var intFields = []struct {
	label  string
	size   int
	signed bool
}{
	{"u8", 1, false}, {"i8", 1, true},
	{"u16", 2, false}, {"i16", 2, true},
	{"u32", 4, false}, {"i32", 4, true},
	{"u64", 8, false}, {"i64", 8, true},
}

// Decode reads up to Width bytes starting at the cursor.
func Decode(data []byte, bigEndian bool) Values {
	if len(data) > Width {
		data = data[:Width]
	}
	var order binary.ByteOrder = binary.LittleEndian
	if bigEndian {
		order = binary.BigEndian
	}

	v := Values{
		BigEndian: bigEndian,
		Bits:      [2]string{bits(data, 0, 8), bits(data, 8, 16)},
	}
	for _, f := range intFields {
		v.Ints = append(v.Ints, Field{f.label, formatInt(data, f.size, f.signed, order)})
	}
	v.Wide = []Field{
		{"u128", formatInt128(data, false, bigEndian)},
		{"i128", formatInt128(data, true, bigEndian)},
	}
	v.Floats = []Field{
		{"f32", formatFloat(data, 4, order)},
		{"f64", formatFloat(data, 8, order)},
	}
	return v
}

func bits(data []byte, from, to int) string {
	if len(data) <= from {
		return Missing
	}
	parts := make([]string, 0, to-from)
	for _, b := range data[from:min(to, len(data))] {
		parts = append(parts, fmt.Sprintf("%08b", b))
	}
	return strings.Join(parts, " ")
}

func formatInt(data []byte, size int, signed bool, order binary.ByteOrder) string {
	if len(data) < size {
		return Missing
	}
	data = data[:size]
	switch size {
	case 1:
		if signed {
			return fmt.Sprint(int8(data[0]))
		}
		return fmt.Sprint(data[0])
	case 2:
		v := order.Uint16(data)
		if signed {
			return fmt.Sprint(int16(v))
		}
		return fmt.Sprint(v)
	case 4:
		v := order.Uint32(data)
		if signed {
			return fmt.Sprint(int32(v))
		}
		return fmt.Sprint(v)
	case 8:
		v := order.Uint64(data)
		if signed {
			return fmt.Sprint(int64(v))
		}
		return fmt.Sprint(v)
	}
	return Missing
}

func formatInt128(data []byte, signed, bigEndian bool) string {
	if len(data) < 16 {
		return Missing
	}
	var high, low uint64
	if bigEndian {
		high = binary.BigEndian.Uint64(data[:8])
		low = binary.BigEndian.Uint64(data[8:16])
	} else {
		low = binary.LittleEndian.Uint64(data[:8])
		high = binary.LittleEndian.Uint64(data[8:16])
	}
	n := new(big.Int).SetUint64(high)
	n.Lsh(n, 64)
	n.Or(n, new(big.Int).SetUint64(low))
	if signed && high&(1<<63) != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	return n.String()
}

func formatFloat(data []byte, size int, order binary.ByteOrder) string {
	if len(data) < size {
		return Missing
	}
	if size == 4 {
		return fmt.Sprintf("%g", math.Float32frombits(order.Uint32(data)))
	}
	return fmt.Sprintf("%g", math.Float64frombits(order.Uint64(data)))
}
