package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewJobConversation(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	cv, err := NewJobConversation("job-1", "Backend Engineer", "bob", "alice", now)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(cv.Participants) != 2 || !cv.HasParticipant("bob") || !cv.HasParticipant("alice") {
		t.Fatalf("participants=%v", cv.Participants)
	}
	if len(cv.UnreadCount) != 2 || cv.UnreadCount["bob"] != 1 || cv.UnreadCount["alice"] != 0 {
		t.Fatalf("unread=%v", cv.UnreadCount)
	}
	if cv.LastMessage == nil || cv.LastMessage.Text != "Application for: Backend Engineer" || cv.LastMessage.SenderID != "alice" {
		t.Fatalf("lastMessage=%+v", cv.LastMessage)
	}
	if !cv.CreatedAt.Equal(now) {
		t.Fatalf("createdAt=%v", cv.CreatedAt)
	}
	if err := cv.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestNewJobConversationRejects(t *testing.T) {
	tests := []struct {
		name                 string
		job, employer, appli string
	}{
		{"same party", "j", "bob", "bob"},
		{"missing employer", "j", "", "alice"},
		{"blank applicant", "j", "bob", "  "},
		{"missing job", "", "bob", "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJobConversation(tt.job, "t", tt.employer, tt.appli, time.Now())
			if !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("err=%v", err)
			}
		})
	}
}

func TestConversationApply(t *testing.T) {
	cv, _ := NewJobConversation("j", "t", "bob", "alice", time.Now())
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cv.Apply(ConversationUpdate{
		LastMessage: &LastMessage{Text: "hi", SenderID: "alice", Timestamp: ts},
		UnreadCount: map[string]int{"bob": 0, "mallory": 7},
	})
	if cv.UnreadCount["bob"] != 0 || cv.UnreadCount["alice"] != 0 {
		t.Fatalf("unread=%v", cv.UnreadCount)
	}
	if _, ok := cv.UnreadCount["mallory"]; ok {
		t.Fatalf("non-participant counter was written")
	}
	if cv.LastMessage.Text != "hi" {
		t.Fatalf("lastMessage=%+v", cv.LastMessage)
	}

	cv.Apply(ConversationUpdate{UnreadCount: map[string]int{"alice": 3}})
	if cv.LastMessage.Text != "hi" || cv.UnreadCount["alice"] != 3 || cv.UnreadCount["bob"] != 0 {
		t.Fatalf("partial update clobbered fields: %+v", cv)
	}
}

func TestConversationValidate(t *testing.T) {
	tests := []struct {
		name    string
		cv      Conversation
		wantErr bool
	}{
		{"ok", Conversation{Participants: []string{"a", "b"}, UnreadCount: map[string]int{"a": 0, "b": 2}}, false},
		{"one participant", Conversation{Participants: []string{"a"}, UnreadCount: map[string]int{"a": 0}}, true},
		{"duplicate", Conversation{Participants: []string{"a", "a"}, UnreadCount: map[string]int{"a": 0}}, true},
		{"stray counter", Conversation{Participants: []string{"a", "b"}, UnreadCount: map[string]int{"a": 0, "c": 1}}, true},
		{"missing counter", Conversation{Participants: []string{"a", "b"}, UnreadCount: map[string]int{"a": 0}}, true},
		{"negative", Conversation{Participants: []string{"a", "b"}, UnreadCount: map[string]int{"a": -1, "b": 0}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cv.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestConversationClone(t *testing.T) {
	cv, _ := NewJobConversation("j", "t", "bob", "alice", time.Now())
	cp := cv.Clone()
	cp.UnreadCount["bob"] = 9
	cp.Participants[0] = "x"
	cp.LastMessage.Text = "changed"
	if cv.UnreadCount["bob"] != 1 || cv.Participants[0] != "bob" || cv.LastMessage.Text == "changed" {
		t.Fatalf("clone shares state with original")
	}
}

func TestNewMessage(t *testing.T) {
	now := time.Now()
	m, err := NewMessage("c1", "alice", "  I'm interested.  ", now)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if m.Text != "I'm interested." || m.Read || m.SenderID != "alice" {
		t.Fatalf("msg=%+v", m)
	}
	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := NewMessage("c1", "alice", text, now); !errors.Is(err, ErrInvalidRecord) {
			t.Fatalf("text=%q err=%v", text, err)
		}
	}
}
