package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"github.com/shinyyama/zaposlitev-backend/internal/repository"
)

func newApplications(t *testing.T) (ApplicationService, *repository.MemoryStore, *model.Job) {
	t.Helper()
	store := repository.NewMemoryStore()
	job := &model.Job{Title: "Backend Engineer", PostedBy: "bob", CreatedAt: time.Now()}
	if err := store.Jobs().Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	clock := &stepClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	msg := NewMessagingService(store.Conversations(), store.Messages(), clock.Now)
	return NewApplicationService(store.Jobs(), msg), store, job
}

func TestApplyWithCover(t *testing.T) {
	ctx := context.Background()
	svc, store, job := newApplications(t)

	app, err := svc.Apply(ctx, "alice", job.ID, "I'm interested.")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if app.Message == nil || app.Message.SenderID != "alice" {
		t.Fatalf("message=%+v", app.Message)
	}
	if app.Conversation.UnreadCount["bob"] != 2 || app.Conversation.UnreadCount["alice"] != 0 {
		t.Fatalf("unread=%v, want bob:2 alice:0", app.Conversation.UnreadCount)
	}
	if app.Conversation.JobID != job.ID || app.Conversation.JobTitle != "Backend Engineer" {
		t.Fatalf("conversation=%+v", app.Conversation)
	}
	msgs, _ := store.Messages().ListByConversation(ctx, app.Conversation.ID)
	if len(msgs) != 1 {
		t.Fatalf("messages=%d", len(msgs))
	}
}

func TestApplyWithoutCover(t *testing.T) {
	svc, _, job := newApplications(t)
	app, err := svc.Apply(context.Background(), "alice", job.ID, "   ")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if app.Message != nil || app.Conversation.UnreadCount["bob"] != 1 {
		t.Fatalf("app=%+v", app)
	}
}

func TestApplyRejects(t *testing.T) {
	svc, _, job := newApplications(t)
	tests := []struct {
		name, uid, jobID string
		want             error
	}{
		{"own job", "bob", job.ID, ErrInvalidInput},
		{"anonymous", "", job.ID, ErrInvalidInput},
		{"missing job", "alice", "nope", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Apply(context.Background(), tt.uid, tt.jobID, "hi"); !errors.Is(err, tt.want) {
				t.Fatalf("err=%v, want %v", err, tt.want)
			}
		})
	}
}
