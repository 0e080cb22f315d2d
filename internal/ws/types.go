package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	// client -> server
	MessageTypeMove          MessageType = "move"
	MessageTypeSuggest       MessageType = "suggest"
	MessageTypeAcceptSuggest MessageType = "acceptSuggestion"
	MessageTypeReset         MessageType = "reset"

	// server -> client
	MessageTypeGameState  MessageType = "gameState"
	MessageTypeSuggestion MessageType = "suggestion"
	MessageTypeGameOver   MessageType = "gameOver"
	MessageTypeError      MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
