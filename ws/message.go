package ws

import "encoding/json"

// InboundEnvelope is the generic envelope for all client-to-server
// messages. Type routes to an intent; the remaining fields are intent
// parameters.
type InboundEnvelope struct {
	Type      string `json:"type"`
	CardIndex int    `json:"card_index"`
}

// ErrorMsg is sent to the originating connection only, on a rejection.
type ErrorMsg struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func marshalError(kind, message string) []byte {
	data, _ := json.Marshal(ErrorMsg{Type: "error", Error: kind, Message: message})
	return data
}
