package table

import (
	"strconv"
	"strings"
)

// Kind discriminates cell value types.
type Kind int

const (
	KindMissing Kind = iota
	KindNumber
	KindText
	KindBool
)

// Value is a single table cell: a number, a text string, a boolean, or the
// distinguished missing marker.
type Value struct {
	kind Kind
	num  float64
	text string
	flag bool
}

// Missing returns the distinguished absence marker.
func Missing() Value { return Value{kind: KindMissing} }

// Number wraps a float64 cell value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text wraps a string cell value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Bool wraps a boolean cell value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Parse interprets a raw loader string: empty becomes Missing, numeric strings
// become Number, everything else Text.
func Parse(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Missing()
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Number(f)
	}
	return Text(s)
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float coerces the value to a number. Missing, text that does not parse, and
// booleans coerce to 0 (documented policy: non-numeric values are not errors).
func (v Value) Float() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64); err == nil {
			return f
		}
	}
	return 0
}

// Bool reports the boolean payload; non-bool values are false.
func (v Value) Bool() bool { return v.kind == KindBool && v.flag }

// String renders the value for display and export. Missing renders empty.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindText:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.flag)
	}
	return ""
}

// Equal compares two cells by value. Missing equals missing here; callers that
// need strict NaN-style semantics check IsMissing first.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		// A number and a text rendering of the same number still count equal,
		// since loaders for different formats may disagree on cell types.
		if (v.kind == KindNumber && o.kind == KindText) || (v.kind == KindText && o.kind == KindNumber) {
			return strings.TrimSpace(v.String()) == strings.TrimSpace(o.String())
		}
		return false
	}
	switch v.kind {
	case KindMissing:
		return true
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.text == o.text
	case KindBool:
		return v.flag == o.flag
	}
	return false
}

// Compare orders values for deterministic sorting: missing sorts first, then
// numbers by magnitude, then booleans, then text lexically.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		return kindRank(v.kind) - kindRank(o.kind)
	}
	switch v.kind {
	case KindNumber:
		switch {
		case v.num < o.num:
			return -1
		case v.num > o.num:
			return 1
		}
		return 0
	case KindText:
		return strings.Compare(v.text, o.text)
	case KindBool:
		switch {
		case !v.flag && o.flag:
			return -1
		case v.flag && !o.flag:
			return 1
		}
		return 0
	}
	return 0
}

func kindRank(k Kind) int {
	switch k {
	case KindMissing:
		return 0
	case KindNumber:
		return 1
	case KindBool:
		return 2
	default:
		return 3
	}
}

// NormKey returns the normalized join-key form of a value: string-cast,
// whitespace-trimmed, lower-cased. ok is false for missing values, which never
// participate in alignment.
func NormKey(v Value) (string, bool) {
	if v.IsMissing() {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(v.String())), true
}
