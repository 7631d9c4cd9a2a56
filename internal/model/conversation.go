package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidRecord = errors.New("invalid record")

// LastMessage is the preview shown in conversation lists.
type LastMessage struct {
	Text      string    `json:"text" firestore:"text"`
	SenderID  string    `json:"senderId" firestore:"senderId"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}

// Conversation is a two-participant thread anchored to one job application.
type Conversation struct {
	ID           string         `json:"id" firestore:"-"`
	JobID        string         `json:"jobId" firestore:"jobId"`
	JobTitle     string         `json:"jobTitle" firestore:"jobTitle"`
	Participants []string       `json:"participants" firestore:"participants"`
	LastMessage  *LastMessage   `json:"lastMessage" firestore:"lastMessage"`
	UnreadCount  map[string]int `json:"unreadCount" firestore:"unreadCount"`
	CreatedAt    time.Time      `json:"createdAt" firestore:"createdAt"`
}

// ConversationUpdate is a field-level merge. A nil LastMessage leaves the
// snapshot alone; each UnreadCount entry overwrites only that participant.
type ConversationUpdate struct {
	LastMessage *LastMessage
	UnreadCount map[string]int
}

// ApplicationText is the synthetic preview seeded when a conversation is opened
// by an application.
func ApplicationText(jobTitle string) string {
	return "Application for: " + jobTitle
}

// NewJobConversation builds the record created when applicantID applies to a
// job posted by employerID. The creation itself counts as one unread
// notification for the employer.
func NewJobConversation(jobID, jobTitle, employerID, applicantID string, now time.Time) (*Conversation, error) {
	employerID = strings.TrimSpace(employerID)
	applicantID = strings.TrimSpace(applicantID)
	if employerID == "" || applicantID == "" {
		return nil, fmt.Errorf("%w: participant is required", ErrInvalidRecord)
	}
	if employerID == applicantID {
		return nil, fmt.Errorf("%w: employer and applicant must differ", ErrInvalidRecord)
	}
	if strings.TrimSpace(jobID) == "" {
		return nil, fmt.Errorf("%w: job id is required", ErrInvalidRecord)
	}
	return &Conversation{
		JobID:        jobID,
		JobTitle:     jobTitle,
		Participants: []string{employerID, applicantID},
		LastMessage: &LastMessage{
			Text:      ApplicationText(jobTitle),
			SenderID:  applicantID,
			Timestamp: now,
		},
		UnreadCount: map[string]int{
			employerID:  1,
			applicantID: 0,
		},
		CreatedAt: now,
	}, nil
}

// Validate checks the shape of a record read back from a backend.
func (c *Conversation) Validate() error {
	if len(c.Participants) != 2 {
		return fmt.Errorf("%w: conversation %s has %d participants", ErrInvalidRecord, c.ID, len(c.Participants))
	}
	a, b := c.Participants[0], c.Participants[1]
	if a == "" || b == "" || a == b {
		return fmt.Errorf("%w: conversation %s has invalid participants", ErrInvalidRecord, c.ID)
	}
	if len(c.UnreadCount) != 2 {
		return fmt.Errorf("%w: conversation %s unread counters do not match participants", ErrInvalidRecord, c.ID)
	}
	for uid, n := range c.UnreadCount {
		if !c.HasParticipant(uid) {
			return fmt.Errorf("%w: conversation %s has counter for non-participant %s", ErrInvalidRecord, c.ID, uid)
		}
		if n < 0 {
			return fmt.Errorf("%w: conversation %s has negative counter", ErrInvalidRecord, c.ID)
		}
	}
	return nil
}

func (c *Conversation) HasParticipant(uid string) bool {
	if uid == "" {
		return false
	}
	for _, p := range c.Participants {
		if p == uid {
			return true
		}
	}
	return false
}

func (c *Conversation) UnreadFor(uid string) int {
	return c.UnreadCount[uid]
}

// Apply merges u into c. Counters for non-participants are dropped.
func (c *Conversation) Apply(u ConversationUpdate) {
	if u.LastMessage != nil {
		lm := *u.LastMessage
		c.LastMessage = &lm
	}
	if len(u.UnreadCount) == 0 {
		return
	}
	if c.UnreadCount == nil {
		c.UnreadCount = make(map[string]int, len(c.Participants))
	}
	for uid, n := range u.UnreadCount {
		if c.HasParticipant(uid) {
			c.UnreadCount[uid] = n
		}
	}
}

// Clone returns a deep copy so callers can't mutate store-owned maps.
func (c Conversation) Clone() Conversation {
	out := c
	out.Participants = append([]string(nil), c.Participants...)
	if c.LastMessage != nil {
		lm := *c.LastMessage
		out.LastMessage = &lm
	}
	if c.UnreadCount != nil {
		out.UnreadCount = make(map[string]int, len(c.UnreadCount))
		for k, v := range c.UnreadCount {
			out.UnreadCount[k] = v
		}
	}
	return out
}
