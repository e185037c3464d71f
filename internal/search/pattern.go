package search

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is how the find prompt input is turned into bytes.
type Kind int

const (
	Text Kind = iota
	Hex
	Bits
	Decimal
)

// Kinds lists the kinds in prompt order.
var Kinds = []Kind{Text, Hex, Bits, Decimal}

var ErrEmptyPattern = errors.New("empty pattern")

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Hex:
		return "hex"
	case Bits:
		return "bits"
	case Decimal:
		return "decimal"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Next cycles to the following kind.
func (k Kind) Next() Kind {
	return Kinds[(int(k)+1)%len(Kinds)]
}

// Prev cycles to the preceding kind.
func (k Kind) Prev() Kind {
	return Kinds[(int(k)+len(Kinds)-1)%len(Kinds)]
}

// Accepts reports whether r may be typed into a prompt of this kind.
func (k Kind) Accepts(r rune) bool {
	switch k {
	case Hex:
		return r == ' ' || strings.ContainsRune("0123456789abcdefABCDEF", r)
	case Bits:
		return r == ' ' || r == '0' || r == '1'
	case Decimal:
		return r >= '0' && r <= '9'
	}
	return true
}

// ParsePattern converts prompt input into the bytes to search for. Hex and
// bits ignore spaces and are left-padded to whole bytes. Decimal encodes
// the value in width bytes with the given byte order.
func ParsePattern(kind Kind, input string, bigEndian bool, width int) ([]byte, error) {
	switch kind {
	case Text:
		if input == "" {
			return nil, ErrEmptyPattern
		}
		return []byte(input), nil

	case Hex:
		s := strings.ReplaceAll(input, " ", "")
		if s == "" {
			return nil, ErrEmptyPattern
		}
		if len(s)%2 != 0 {
			s = "0" + s
		}
		out := make([]byte, len(s)/2)
		for i := 0; i < len(s); i += 2 {
			v, err := strconv.ParseUint(s[i:i+2], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid hex %q", s[i:i+2])
			}
			out[i/2] = byte(v)
		}
		return out, nil

	case Bits:
		s := strings.ReplaceAll(input, " ", "")
		if s == "" {
			return nil, ErrEmptyPattern
		}
		if pad := len(s) % 8; pad != 0 {
			s = strings.Repeat("0", 8-pad) + s
		}
		out := make([]byte, len(s)/8)
		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '1':
				out[i/8] |= 1 << (7 - i%8)
			case '0':
			default:
				return nil, fmt.Errorf("invalid bit %q", s[i])
			}
		}
		return out, nil

	case Decimal:
		if input == "" {
			return nil, ErrEmptyPattern
		}
		switch width {
		case 1, 2, 4, 8:
		default:
			return nil, fmt.Errorf("invalid width %d", width)
		}
		v, err := strconv.ParseUint(input, 10, width*8)
		if err != nil {
			return nil, fmt.Errorf("%q does not fit in %d bytes", input, width)
		}
		out := make([]byte, width)
		for i := 0; i < width; i++ {
			b := byte(v >> (8 * i))
			if bigEndian {
				out[width-1-i] = b
			} else {
				out[i] = b
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown pattern kind %v", kind)
}
