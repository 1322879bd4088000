package keypad

import "fmt"

// Operator is the binary operation awaiting its second operand.
type Operator int

const (
	None Operator = iota
	Add
	Subtract
	Multiply
	Divide
)

// String returns the key glyph for the operator, or "" for None.
func (o Operator) String() string {
	switch o {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "×"
	case Divide:
		return "÷"
	default:
		return ""
	}
}

// MarshalText lets State serialise the pending operator as its glyph.
func (o Operator) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Operator) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*o = None
		return nil
	}

	op, ok := ParseOperator(string(text))
	if !ok {
		return fmt.Errorf("unknown operator %q", text)
	}
	*o = op
	return nil
}

// ParseOperator maps an operator key to an Operator. ASCII aliases are
// accepted for clients that cannot type the glyphs.
func ParseOperator(token string) (Operator, bool) {
	switch token {
	case "+":
		return Add, true
	case "-", "−":
		return Subtract, true
	case "×", "*", "x":
		return Multiply, true
	case "÷", "/", ":":
		return Divide, true
	default:
		return None, false
	}
}

// apply evaluates previous op current. ok is false on division by an exact zero.
func (o Operator) apply(previous, current float64) (result float64, ok bool) {
	switch o {
	case Add:
		return previous + current, true
	case Subtract:
		return previous - current, true
	case Multiply:
		return previous * current, true
	case Divide:
		if current == 0 {
			return 0, false
		}
		return previous / current, true
	default:
		return 0, false
	}
}
