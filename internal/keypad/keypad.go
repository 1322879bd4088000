// Package keypad implements the input and compute state of a pocket
// calculator: two operand buffers, a pending operator and one binary
// operation evaluated at a time, left to right.
//
// A Calculator is not safe for concurrent use. Callers that share one across
// goroutines must serialise access themselves.
package keypad

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultMaxDigits is the number of numerals an operand may hold.
	DefaultMaxDigits = 7

	// ErrorText is displayed after a division by zero.
	ErrorText = "Error"
)

var (
	// ErrDigitLimitExceeded is returned when a numeral would push the operand
	// past the digit limit. State is left unchanged.
	ErrDigitLimitExceeded = errors.New("digit limit exceeded")

	// ErrUnknownSymbol is returned for keys the calculator has no meaning for.
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Notifier is told synchronously when a numeral is rejected by the digit limit.
type Notifier func(limit int)

// Display is what a screen shows after each key.
type Display struct {
	Text string `json:"text"`
	// Compact asks the screen for a smaller font.
	Compact bool `json:"compact"`
}

// State is a snapshot of the calculator registers.
type State struct {
	Current  string   `json:"current"`
	Previous string   `json:"previous"`
	Pending  Operator `json:"pending"`
}

type Calculator struct {
	current  string
	previous string
	pending  Operator

	format    Format
	maxDigits int
	notify    Notifier
}

type Option func(*Calculator)

// WithFormat sets the decimal convention.
func WithFormat(f Format) Option {
	return func(c *Calculator) { c.format = f }
}

// WithMaxDigits overrides DefaultMaxDigits. Values below one are ignored.
func WithMaxDigits(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.maxDigits = n
		}
	}
}

// WithNotifier registers the digit-limit notice.
func WithNotifier(n Notifier) Option {
	return func(c *Calculator) { c.notify = n }
}

func New(opts ...Option) *Calculator {
	c := &Calculator{
		format:    DefaultFormat(),
		maxDigits: DefaultMaxDigits,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calculator) limit() int {
	if c.maxDigits <= 0 {
		return DefaultMaxDigits
	}
	return c.maxDigits
}

// MaxDigits reports the configured digit limit.
func (c *Calculator) MaxDigits() int {
	return c.limit()
}

// Format reports the configured decimal convention.
func (c *Calculator) Format() Format {
	return c.format
}

// AppendSymbol types a numeral or the decimal separator into the current
// operand. A second separator is ignored.
func (c *Calculator) AppendSymbol(symbol rune) error {
	sep := c.format.separator()

	switch {
	case symbol == sep:
		if strings.ContainsRune(c.current, sep) {
			return nil
		}
	case isNumeral(symbol):
		if countDigits(c.current) >= c.limit() {
			if c.notify != nil {
				c.notify(c.limit())
			}
			return fmt.Errorf("%w: maximum of %d digits", ErrDigitLimitExceeded, c.limit())
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}

	if c.current == "0" || c.current == ErrorText {
		c.current = string(symbol)
		return nil
	}

	c.current += string(symbol)
	return nil
}

// ChooseOperator locks the current operand in behind op. A pending operation
// is folded first so entry chains left to right.
func (c *Calculator) ChooseOperator(op Operator) {
	if op == None || c.current == "" || c.current == ErrorText {
		return
	}

	if c.previous != "" {
		c.Compute()
		if c.current == ErrorText {
			return
		}
	}

	c.pending = op
	c.previous = c.current
	c.current = ""
}

// Compute applies the pending operator. It does nothing when no operator is
// pending or either operand does not parse.
func (c *Calculator) Compute() {
	if c.pending == None {
		return
	}

	previous, err := c.format.Parse(c.previous)
	if err != nil {
		return
	}
	current, err := c.format.Parse(c.current)
	if err != nil {
		return
	}

	if result, ok := c.pending.apply(previous, current); ok {
		c.current = c.format.Format(result)
	} else {
		c.current = ErrorText
	}

	c.previous = ""
	c.pending = None
}

func (c *Calculator) Clear() {
	c.current = ""
	c.previous = ""
	c.pending = None
}

func (c *Calculator) ToggleSign() {
	if c.current == "" || c.current == ErrorText {
		return
	}

	if c.current[0] == '-' {
		c.current = c.current[1:]
		return
	}
	c.current = "-" + c.current
}

// Percent divides the current operand by 100. The pending operation is not
// consulted.
func (c *Calculator) Percent() {
	if c.current == "" {
		return
	}

	v, err := c.format.Parse(c.current)
	if err != nil {
		return
	}

	c.current = c.format.Format(v / 100)
}

func (c *Calculator) Display() Display {
	text := c.current
	if text == "" {
		text = "0"
	}

	return Display{
		Text:    text,
		Compact: countDigits(c.current) > c.limit(),
	}
}

func (c *Calculator) State() State {
	return State{
		Current:  c.current,
		Previous: c.previous,
		Pending:  c.pending,
	}
}

func isNumeral(r rune) bool {
	return r >= '0' && r <= '9'
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if isNumeral(r) {
			n++
		}
	}
	return n
}
