// Package types defines the CIM scalar value types.
//
// CIM (DSP0004) defines a fixed set of intrinsic data types: signed and
// unsigned integers of 8/16/32/64 bits, IEEE-754 reals of 32/64 bits,
// boolean, string, 16-bit characters and datetime. This package provides Go
// representations with range-validated construction and the canonical wire
// text used by the CIM-XML representation (DSP0201).
//
// Integer values outside the declared width are rejected at construction
// time rather than truncated:
//
//	v, err := types.NewUint8(256) // err: value out of range
//
// # Wire Text
//
// ToWireText renders a typed value to the character data carried inside a
// VALUE element; Parse is its inverse and is driven by the declared CIM type
// of the surrounding PROPERTY/KEYVALUE/QUALIFIER element.
//
// # Reference
//
// DSP0004 Section 5.2 (Intrinsic data types)
package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CIMType names an intrinsic CIM data type.
type CIMType string

// Intrinsic CIM data types.
// Reference: DSP0004 Section 5.2
const (
	TypeBoolean  CIMType = "boolean"
	TypeString   CIMType = "string"
	TypeChar16   CIMType = "char16"
	TypeUint8    CIMType = "uint8"
	TypeUint16   CIMType = "uint16"
	TypeUint32   CIMType = "uint32"
	TypeUint64   CIMType = "uint64"
	TypeSint8    CIMType = "sint8"
	TypeSint16   CIMType = "sint16"
	TypeSint32   CIMType = "sint32"
	TypeSint64   CIMType = "sint64"
	TypeReal32   CIMType = "real32"
	TypeReal64   CIMType = "real64"
	TypeDateTime CIMType = "datetime"
	// TypeReference is the declared type of REFERENCE properties and
	// parameters. Reference values carry a class or instance path instead
	// of a scalar.
	TypeReference CIMType = "reference"
)

// FormatError reports malformed scalar text or an out-of-range value.
type FormatError struct {
	Type   CIMType
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("invalid CIM value %q: %s", e.Text, e.Reason)
	}
	return fmt.Sprintf("invalid %s value %q: %s", e.Type, e.Text, e.Reason)
}

// Integer and real wrapper types. Each integer type carries the value range
// of the corresponding CIM type; use the New* constructors to validate.
type (
	Uint8  uint8
	Uint16 uint16
	Uint32 uint32
	Uint64 uint64
	Sint8  int8
	Sint16 int16
	Sint32 int32
	Sint64 int64
	Real32 float32
	Real64 float64
	// Char16 is a single UCS-2 character.
	Char16 rune
)

// NewUint8 validates v against [0, 255].
func NewUint8(v uint64) (Uint8, error) {
	if v > math.MaxUint8 {
		return 0, rangeErr(TypeUint8, strconv.FormatUint(v, 10))
	}
	return Uint8(v), nil
}

// NewUint16 validates v against [0, 65535].
func NewUint16(v uint64) (Uint16, error) {
	if v > math.MaxUint16 {
		return 0, rangeErr(TypeUint16, strconv.FormatUint(v, 10))
	}
	return Uint16(v), nil
}

// NewUint32 validates v against [0, 2^32-1].
func NewUint32(v uint64) (Uint32, error) {
	if v > math.MaxUint32 {
		return 0, rangeErr(TypeUint32, strconv.FormatUint(v, 10))
	}
	return Uint32(v), nil
}

// NewUint64 accepts the full uint64 range.
func NewUint64(v uint64) (Uint64, error) {
	return Uint64(v), nil
}

// NewSint8 validates v against [-128, 127].
func NewSint8(v int64) (Sint8, error) {
	if v < math.MinInt8 || v > math.MaxInt8 {
		return 0, rangeErr(TypeSint8, strconv.FormatInt(v, 10))
	}
	return Sint8(v), nil
}

// NewSint16 validates v against [-32768, 32767].
func NewSint16(v int64) (Sint16, error) {
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, rangeErr(TypeSint16, strconv.FormatInt(v, 10))
	}
	return Sint16(v), nil
}

// NewSint32 validates v against [-2^31, 2^31-1].
func NewSint32(v int64) (Sint32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, rangeErr(TypeSint32, strconv.FormatInt(v, 10))
	}
	return Sint32(v), nil
}

// NewSint64 accepts the full int64 range.
func NewSint64(v int64) (Sint64, error) {
	return Sint64(v), nil
}

func rangeErr(t CIMType, text string) error {
	return &FormatError{Type: t, Text: text, Reason: "value out of range"}
}

// IsIntType reports whether t is one of the eight CIM integer types.
func IsIntType(t CIMType) bool {
	switch t {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeSint8, TypeSint16, TypeSint32, TypeSint64:
		return true
	}
	return false
}

// IsRealType reports whether t is real32 or real64.
func IsRealType(t CIMType) bool {
	return t == TypeReal32 || t == TypeReal64
}

// Parse converts CIM-XML character data into the typed value declared by t.
// Malformed or out-of-range text yields a *FormatError.
//
// Integer text is parsed base 10, except that an explicit "0x"/"0X" prefix
// selects base 16 (DSP0201 permits hex integer constants).
func Parse(t CIMType, text string) (interface{}, error) {
	switch t {
	case TypeString:
		return text, nil

	case TypeChar16:
		r := []rune(text)
		if len(r) != 1 {
			return nil, &FormatError{Type: t, Text: text, Reason: "must be exactly one character"}
		}
		return Char16(r[0]), nil

	case TypeBoolean:
		// DSP0201: boolean comparison is case-insensitive.
		switch strings.ToLower(text) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, &FormatError{Type: t, Text: text, Reason: `must be "true" or "false"`}

	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		v, err := parseUint(text, intBits(t))
		if err != nil {
			return nil, &FormatError{Type: t, Text: text, Reason: err.Error()}
		}
		switch t {
		case TypeUint8:
			return Uint8(v), nil
		case TypeUint16:
			return Uint16(v), nil
		case TypeUint32:
			return Uint32(v), nil
		default:
			return Uint64(v), nil
		}

	case TypeSint8, TypeSint16, TypeSint32, TypeSint64:
		v, err := parseSint(text, intBits(t))
		if err != nil {
			return nil, &FormatError{Type: t, Text: text, Reason: err.Error()}
		}
		switch t {
		case TypeSint8:
			return Sint8(v), nil
		case TypeSint16:
			return Sint16(v), nil
		case TypeSint32:
			return Sint32(v), nil
		default:
			return Sint64(v), nil
		}

	case TypeReal32:
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, &FormatError{Type: t, Text: text, Reason: "not a real number"}
		}
		return Real32(v), nil

	case TypeReal64:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &FormatError{Type: t, Text: text, Reason: "not a real number"}
		}
		return Real64(v), nil

	case TypeDateTime:
		return ParseDateTime(text)
	}

	return nil, &FormatError{Type: t, Text: text, Reason: "unknown CIM type"}
}

func intBits(t CIMType) int {
	switch t {
	case TypeUint8, TypeSint8:
		return 8
	case TypeUint16, TypeSint16:
		return 16
	case TypeUint32, TypeSint32:
		return 32
	default:
		return 64
	}
}

func parseUint(text string, bits int) (uint64, error) {
	base := 10
	if len(text) > 2 && (text[:2] == "0x" || text[:2] == "0X") {
		base = 16
		text = text[2:]
	}
	v, err := strconv.ParseUint(text, base, bits)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, fmt.Errorf("value out of range")
		}
		return 0, fmt.Errorf("not an integer")
	}
	return v, nil
}

func parseSint(text string, bits int) (int64, error) {
	base := 10
	neg := false
	s := text
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		base = 16
		s = s[2:]
	}
	if neg {
		s = "-" + s
	}
	v, err := strconv.ParseInt(s, base, bits)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, fmt.Errorf("value out of range")
		}
		return 0, fmt.Errorf("not an integer")
	}
	return v, nil
}

// TypeOf infers the CIM type of a Go value produced by this package or used
// as a property/parameter value. Plain Go ints are rejected: the caller must
// pick an explicit width.
func TypeOf(v interface{}) (CIMType, error) {
	switch v.(type) {
	case string:
		return TypeString, nil
	case bool:
		return TypeBoolean, nil
	case Char16:
		return TypeChar16, nil
	case Uint8:
		return TypeUint8, nil
	case Uint16:
		return TypeUint16, nil
	case Uint32:
		return TypeUint32, nil
	case Uint64:
		return TypeUint64, nil
	case Sint8:
		return TypeSint8, nil
	case Sint16:
		return TypeSint16, nil
	case Sint32:
		return TypeSint32, nil
	case Sint64:
		return TypeSint64, nil
	case Real32:
		return TypeReal32, nil
	case Real64:
		return TypeReal64, nil
	case *CIMDateTime:
		return TypeDateTime, nil
	}
	return "", fmt.Errorf("no CIM type for Go value of type %T", v)
}

// ToWireText renders a typed scalar value as CIM-XML character data.
func ToWireText(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case Char16:
		return string(rune(val)), nil
	case Uint8:
		return strconv.FormatUint(uint64(val), 10), nil
	case Uint16:
		return strconv.FormatUint(uint64(val), 10), nil
	case Uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case Uint64:
		return strconv.FormatUint(uint64(val), 10), nil
	case Sint8:
		return strconv.FormatInt(int64(val), 10), nil
	case Sint16:
		return strconv.FormatInt(int64(val), 10), nil
	case Sint32:
		return strconv.FormatInt(int64(val), 10), nil
	case Sint64:
		return strconv.FormatInt(int64(val), 10), nil
	case Real32:
		return strconv.FormatFloat(float64(val), 'E', -1, 32), nil
	case Real64:
		return strconv.FormatFloat(float64(val), 'E', -1, 64), nil
	case *CIMDateTime:
		return val.String(), nil
	}
	return "", fmt.Errorf("no wire text for Go value of type %T", v)
}
