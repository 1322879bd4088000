package calculator

import "keypad-calculator/internal/keypad"

// maxKeysPerRequest bounds the work a single request can queue on a session.
const maxKeysPerRequest = 256

// KeysRequest is the JSON body for POST /calculator/sessions/{id}/keys and
// POST /calculator/evaluate.
type KeysRequest struct {
	Keys []string `json:"keys"` // e.g. ["7", ",", "5", "+", "2", "="]
}

// View is the JSON response for all calculator endpoints.
type View struct {
	SessionID string       `json:"session_id,omitempty"`
	Display   string       `json:"display"`
	Compact   bool         `json:"compact"`
	State     keypad.State `json:"state"`
}

func newView(id string, calc *keypad.Calculator) View {
	display := calc.Display()
	return View{
		SessionID: id,
		Display:   display.Text,
		Compact:   display.Compact,
		State:     calc.State(),
	}
}
