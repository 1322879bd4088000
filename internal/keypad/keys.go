package keypad

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Function keys.
const (
	KeyEquals     = "="
	KeyClear      = "AC"
	KeyToggleSign = "+/-"
	KeyPercent    = "%"
)

// Press dispatches one key token. Numerals and the separator are typed,
// operator glyphs choose an operation, and function keys run their action.
func (c *Calculator) Press(token string) error {
	token = strings.TrimSpace(token)

	switch token {
	case KeyEquals:
		c.Compute()
		return nil
	case KeyClear, "C":
		c.Clear()
		return nil
	case KeyToggleSign, "±":
		c.ToggleSign()
		return nil
	case KeyPercent:
		c.Percent()
		return nil
	}

	if op, ok := ParseOperator(token); ok {
		c.ChooseOperator(op)
		return nil
	}

	if r, size := utf8.DecodeRuneInString(token); size > 0 && size == len(token) {
		return c.AppendSymbol(r)
	}

	return fmt.Errorf("%w: %q", ErrUnknownSymbol, token)
}

// PressAll presses keys in order and stops at the first error. The index of
// the failing key is returned alongside it, or len(keys) on success.
func (c *Calculator) PressAll(keys []string) (int, error) {
	for i, key := range keys {
		if err := c.Press(key); err != nil {
			return i, err
		}
	}
	return len(keys), nil
}

// SplitKeys breaks a line such as "7 , 5 + 2 =" into key tokens.
func SplitKeys(line string) []string {
	return strings.Fields(line)
}
