package service

import (
	"sort"
	"time"

	"github.com/shinyyama/zaposlitev-backend/internal/model"
)

// Inbox is a participant's view of their conversations.
type Inbox struct {
	Conversations []model.Conversation `json:"conversations"`
	UnreadCount   int                  `json:"unreadCount"`
}

func lastActivity(cv model.Conversation) time.Time {
	if cv.LastMessage == nil {
		return time.Time{}
	}
	return cv.LastMessage.Timestamp
}

// BuildInbox sorts convs by last message, newest first, and sums uid's
// unread counters.
func BuildInbox(uid string, convs []model.Conversation) Inbox {
	list := make([]model.Conversation, len(convs))
	copy(list, convs)
	sort.SliceStable(list, func(i, j int) bool {
		return lastActivity(list[i]).After(lastActivity(list[j]))
	})
	total := 0
	for _, cv := range list {
		if n := cv.UnreadFor(uid); n > 0 {
			total += n
		}
	}
	return Inbox{Conversations: list, UnreadCount: total}
}

// SortMessages orders msgs oldest first.
func SortMessages(msgs []model.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
