package keypad

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultSeparator is the decimal comma used when no Format is configured.
const DefaultSeparator = ','

// ErrUnparsable is returned by Format.Parse for text that is not a number.
var ErrUnparsable = errors.New("operand is not a number")

// Format is the decimal convention shared by operand entry, parsing and
// result formatting.
type Format struct {
	Separator rune
}

// DefaultFormat returns the decimal-comma convention.
func DefaultFormat() Format {
	return Format{Separator: DefaultSeparator}
}

func (f Format) separator() rune {
	if f.Separator == 0 {
		return DefaultSeparator
	}
	return f.Separator
}

// Parse reads operand text written with the configured separator.
func (f Format) Parse(s string) (float64, error) {
	if s == "" {
		return 0, ErrUnparsable
	}

	normalized := strings.Replace(s, string(f.separator()), ".", 1)

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparsable, s)
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", ErrUnparsable, s)
	}

	return v, nil
}

// Format renders v as the shortest decimal that round-trips, switching to
// exponent notation outside [1e-6, 1e21). The separator only appears when the
// number has a fractional part.
func (f Format) Format(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		// covers -0
		return "0"
	}

	var s string
	if abs := math.Abs(v); abs >= 1e21 || abs < 1e-6 {
		s = trimExponent(strconv.FormatFloat(v, 'e', -1, 64))
	} else {
		s = strconv.FormatFloat(v, 'f', -1, 64)
	}

	return strings.Replace(s, ".", string(f.separator()), 1)
}

// trimExponent turns "1e-07" into "1e-7".
func trimExponent(s string) string {
	mantissa, exp, found := strings.Cut(s, "e")
	if !found || len(exp) < 2 {
		return s
	}

	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}

	return mantissa + "e" + sign + digits
}
