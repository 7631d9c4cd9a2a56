package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/zaposlitev-backend/internal/model"
)

// MarkReadChunk is the largest id set MarkRead commits atomically. It matches
// the firestore batch write limit.
const MarkReadChunk = 500

var (
	ErrNotFound   = errors.New("record not found")
	ErrDBNotReady = errors.New("database not initialized")
)

type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	FindByID(ctx context.Context, id string) (*model.Job, error)
	Update(ctx context.Context, job *model.Job) error
	Delete(ctx context.Context, id string) error
	// List returns every posting, newest first.
	List(ctx context.Context) ([]model.Job, error)
}

type ConversationRepository interface {
	// Create assigns cv.ID.
	Create(ctx context.Context, cv *model.Conversation) error
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	// Update merges u into the stored record and fails with ErrNotFound when id
	// is absent.
	Update(ctx context.Context, id string, u model.ConversationUpdate) error
	// ListByParticipant returns conversations uid takes part in, in no
	// particular order.
	ListByParticipant(ctx context.Context, uid string) ([]model.Conversation, error)
	// WatchByParticipant streams ListByParticipant snapshots until ctx is done.
	WatchByParticipant(ctx context.Context, uid string) (<-chan []model.Conversation, error)
}

type MessageRepository interface {
	// Create assigns msg.ID.
	Create(ctx context.Context, msg *model.Message) error
	// ListByConversation returns messages in no particular order.
	ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error)
	// ListUnread returns unread messages in the conversation not sent by readerUID.
	ListUnread(ctx context.Context, conversationID, readerUID string) ([]model.Message, error)
	// MarkRead flags ids as read. Already-read ids are fine. When any id is
	// unknown it returns ErrNotFound and flags none of them. Writes are
	// atomic in groups of at most MarkReadChunk ids.
	MarkRead(ctx context.Context, ids []string) error
	WatchByConversation(ctx context.Context, conversationID string) (<-chan []model.Message, error)
}

// uniqueIDs drops empty and repeated ids, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
