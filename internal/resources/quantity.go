package resources

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit is the unit class of a Quantity. It is fixed once a quantity is parsed.
type Unit int

const (
	// UnitAbsent marks the zero Quantity: nothing was specified.
	UnitAbsent Unit = iota
	// UnitNone is a plain decimal without suffix (fractional CPU cores).
	UnitNone
	// UnitMilli is an integer followed by "m" (millicores).
	UnitMilli
	// UnitBinary is an integer followed by Ki, Mi, Gi or Ti.
	UnitBinary
	// UnitCount is an accelerator count.
	UnitCount
	// UnitOpaque carries unrecognized text verbatim. It is display-only.
	UnitOpaque
)

func (u Unit) String() string {
	switch u {
	case UnitAbsent:
		return "absent"
	case UnitNone:
		return "none"
	case UnitMilli:
		return "milli"
	case UnitBinary:
		return "binary"
	case UnitCount:
		return "count"
	case UnitOpaque:
		return "opaque"
	default:
		return "unit(" + strconv.Itoa(int(u)) + ")"
	}
}

var binarySuffixes = []string{"Ki", "Mi", "Gi", "Ti"}

// Quantity is an immutable resource amount with a unit class.
// Scale returns a new value; nothing mutates a Quantity in place.
type Quantity struct {
	unit   Unit
	n      int64   // UnitMilli, UnitBinary, UnitCount
	f      float64 // UnitNone
	suffix string  // UnitBinary
	// text is the source string of a parsed, unscaled quantity. For
	// UnitOpaque it is always the original text.
	text   string
	scaled bool
	factor int64 // UnitOpaque only
}

// ParseError reports a malformed quantity string.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid quantity %q: %s", e.Input, e.Reason)
}

// Parse reads a CPU or memory quantity. The empty string yields the absent
// quantity. Accepted forms: a non-negative decimal ("0.5", "2"), an integer
// followed by "m" ("500m"), or an integer followed by Ki, Mi, Gi or Ti.
func Parse(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Quantity{}, nil
	}
	for _, suf := range binarySuffixes {
		if strings.HasSuffix(s, suf) {
			n, err := parseWhole(s, strings.TrimSuffix(s, suf))
			if err != nil {
				return Quantity{}, err
			}
			return Quantity{unit: UnitBinary, n: n, suffix: suf, text: s}, nil
		}
	}
	if strings.HasSuffix(s, "m") {
		n, err := parseWhole(s, strings.TrimSuffix(s, "m"))
		if err != nil {
			return Quantity{}, err
		}
		return Quantity{unit: UnitMilli, n: n, text: s}, nil
	}
	f, err := parseDecimal(s)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{unit: UnitNone, f: f, text: s}, nil
}

// ParseLenient behaves like Parse but never fails: input Parse rejects is
// kept verbatim as an opaque, display-only quantity.
func ParseLenient(s string) Quantity {
	q, err := Parse(s)
	if err != nil {
		return Quantity{unit: UnitOpaque, text: strings.TrimSpace(s)}
	}
	return q
}

// ParseCPU is the lenient parse for CPU amounts: plain decimals and
// millicores. Any other form, binary suffixes included, stays opaque.
func ParseCPU(s string) Quantity {
	return parseKind(s, UnitNone, UnitMilli)
}

// ParseMemory is the lenient parse for memory amounts: plain decimals and
// binary suffixes. Millicores stay opaque.
func ParseMemory(s string) Quantity {
	return parseKind(s, UnitNone, UnitBinary)
}

func parseKind(s string, allowed ...Unit) Quantity {
	q := ParseLenient(s)
	switch q.unit {
	case UnitAbsent, UnitOpaque:
		return q
	}
	for _, u := range allowed {
		if q.unit == u {
			return q
		}
	}
	return Quantity{unit: UnitOpaque, text: q.text}
}

// ParseCount reads a non-negative accelerator count.
func ParseCount(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Quantity{}, nil
	}
	n, err := parseWhole(s, s)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{unit: UnitCount, n: n, text: s}, nil
}

// Count builds an accelerator count quantity.
func Count(n int64) Quantity {
	if n < 0 {
		n = 0
	}
	return Quantity{unit: UnitCount, n: n, text: strconv.FormatInt(n, 10)}
}

func parseWhole(input, digits string) (int64, error) {
	if digits == "" {
		return 0, &ParseError{Input: input, Reason: "missing number"}
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, &ParseError{Input: input, Reason: "not a non-negative integer"}
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &ParseError{Input: input, Reason: "number out of range"}
	}
	return n, nil
}

func parseDecimal(s string) (float64, error) {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, &ParseError{Input: s, Reason: "unrecognized suffix"}
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, &ParseError{Input: s, Reason: "not a decimal number"}
	}
	return f, nil
}

// Unit returns the unit class.
func (q Quantity) Unit() Unit { return q.unit }

// IsZero reports whether the quantity is absent.
func (q Quantity) IsZero() bool { return q.unit == UnitAbsent }

// Value returns the numeric magnitude in the quantity's own unit: cores for
// UnitNone, millicores for UnitMilli, multiples of the suffix for
// UnitBinary, and the count for UnitCount. Opaque quantities report 0.
func (q Quantity) Value() float64 {
	switch q.unit {
	case UnitNone:
		return q.f
	case UnitMilli, UnitBinary, UnitCount:
		return float64(q.n)
	default:
		return 0
	}
}

// Int64 returns the integer magnitude of milli, binary and count quantities.
func (q Quantity) Int64() int64 { return q.n }

// Suffix returns the binary suffix (Ki, Mi, Gi, Ti) or "".
func (q Quantity) Suffix() string { return q.suffix }

// Scale multiplies the magnitude by factor. Negative factors count as zero.
// Opaque quantities record the factor for display instead, and so does an
// integer magnitude whose product would overflow int64.
func (q Quantity) Scale(factor int64) Quantity {
	if factor < 0 {
		factor = 0
	}
	out := q
	out.scaled = true
	switch q.unit {
	case UnitAbsent:
		return q
	case UnitNone:
		out.f = q.f * float64(factor)
	case UnitMilli, UnitBinary, UnitCount:
		if factor > 0 && q.n > math.MaxInt64/factor {
			return Quantity{unit: UnitOpaque, text: q.Format(), scaled: true, factor: factor}
		}
		out.n = q.n * factor
	case UnitOpaque:
		if q.scaled {
			out.factor = mulSaturating(q.factor, factor)
		} else {
			out.factor = factor
		}
		return out
	}
	out.text = ""
	return out
}

func mulSaturating(a, b int64) int64 {
	if a > 0 && b > math.MaxInt64/a {
		return math.MaxInt64
	}
	return a * b
}

// Format renders the quantity. An unscaled parsed quantity keeps its source
// text. Scaled millicores of 1000 or more render as cores with a single
// fractional digit taken from the hundreds of millicores, so 1550m
// becomes "1.5".
func (q Quantity) Format() string {
	if q.unit == UnitOpaque {
		if q.scaled {
			return q.text + "*" + strconv.FormatInt(q.factor, 10)
		}
		return q.text
	}
	if q.text != "" {
		return q.text
	}
	switch q.unit {
	case UnitNone:
		return formatDecimal(q.f)
	case UnitMilli:
		if q.n >= 1000 {
			return fmt.Sprintf("%d.%d", q.n/1000, (q.n%1000)/100)
		}
		return strconv.FormatInt(q.n, 10) + "m"
	case UnitBinary:
		return strconv.FormatInt(q.n, 10) + q.suffix
	case UnitCount:
		return strconv.FormatInt(q.n, 10)
	default:
		return ""
	}
}

func (q Quantity) String() string { return q.Format() }

// formatDecimal prints the shortest representation with at least one
// fractional digit: 8 -> "8.0", 1.5 -> "1.5".
func formatDecimal(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
