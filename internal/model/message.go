package model

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	ID             string    `json:"id" firestore:"-"`
	ConversationID string    `json:"conversationId" firestore:"conversationId"`
	SenderID       string    `json:"senderId" firestore:"senderId"`
	Text           string    `json:"text" firestore:"text"`
	Timestamp      time.Time `json:"timestamp" firestore:"timestamp"`
	Read           bool      `json:"read" firestore:"read"`
}

// NewMessage trims text and rejects empty bodies.
func NewMessage(conversationID, senderID, text string, now time.Time) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is empty", ErrInvalidRecord)
	}
	if conversationID == "" || senderID == "" {
		return nil, fmt.Errorf("%w: conversation and sender are required", ErrInvalidRecord)
	}
	return &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		Timestamp:      now,
	}, nil
}

func (m *Message) Validate() error {
	if m.ConversationID == "" || m.SenderID == "" {
		return fmt.Errorf("%w: message %s missing conversation or sender", ErrInvalidRecord, m.ID)
	}
	if strings.TrimSpace(m.Text) == "" {
		return fmt.Errorf("%w: message %s has empty text", ErrInvalidRecord, m.ID)
	}
	return nil
}
