package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"github.com/shinyyama/zaposlitev-backend/internal/repository"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newMessaging(t *testing.T) (MessagingService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	clock := &stepClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewMessagingService(store.Conversations(), store.Messages(), clock.Now), store
}

func mustConversation(t *testing.T, svc MessagingService) *model.Conversation {
	t.Helper()
	cv, err := svc.CreateJobConversation(context.Background(), "job-1", "Backend Engineer", "bob", "alice")
	if err != nil {
		t.Fatalf("CreateJobConversation: %v", err)
	}
	return cv
}

func TestCreateJobConversation(t *testing.T) {
	svc, store := newMessaging(t)
	cv := mustConversation(t, svc)

	if cv.ID == "" {
		t.Fatalf("id not assigned")
	}
	if len(cv.Participants) != 2 || !cv.HasParticipant("bob") || !cv.HasParticipant("alice") {
		t.Fatalf("participants=%v", cv.Participants)
	}
	if len(cv.UnreadCount) != 2 || cv.UnreadCount["bob"] != 1 || cv.UnreadCount["alice"] != 0 {
		t.Fatalf("unreadCount=%v", cv.UnreadCount)
	}
	if cv.LastMessage == nil || cv.LastMessage.SenderID != "alice" || cv.LastMessage.Text != "Application for: Backend Engineer" {
		t.Fatalf("lastMessage=%+v", cv.LastMessage)
	}

	// No message row backs the synthetic announcement.
	msgs, _ := store.Messages().ListByConversation(context.Background(), cv.ID)
	if len(msgs) != 0 {
		t.Fatalf("messages=%v", msgs)
	}

	again := mustConversation(t, svc)
	if again.ID == cv.ID {
		t.Fatalf("repeat application reused conversation %s", cv.ID)
	}
}

func TestCreateJobConversationRejects(t *testing.T) {
	svc, _ := newMessaging(t)
	tests := []struct {
		name                string
		employer, applicant string
	}{
		{"same user", "bob", "bob"},
		{"empty employer", "", "alice"},
		{"empty applicant", "bob", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateJobConversation(context.Background(), "job-1", "QA", tt.employer, tt.applicant)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err=%v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	svc, store := newMessaging(t)
	cv := mustConversation(t, svc)

	msg, err := svc.SendMessage(ctx, "bob", cv.ID, "  Thanks, when can you talk?  ", "alice")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg == nil || msg.ID == "" || msg.Read || msg.SenderID != "bob" || msg.Text != "Thanks, when can you talk?" {
		t.Fatalf("msg=%+v", msg)
	}

	got, _ := store.Conversations().FindByID(ctx, cv.ID)
	if got.UnreadCount["alice"] != 1 {
		t.Fatalf("alice unread=%d, want 1", got.UnreadCount["alice"])
	}
	if got.UnreadCount["bob"] != 1 {
		t.Fatalf("sender count changed: bob=%d", got.UnreadCount["bob"])
	}
	if got.LastMessage.Text != msg.Text || got.LastMessage.SenderID != "bob" || !got.LastMessage.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("lastMessage=%+v", got.LastMessage)
	}
}

func TestSendMessageNoOps(t *testing.T) {
	ctx := context.Background()
	svc, store := newMessaging(t)
	cv := mustConversation(t, svc)
	before, _ := store.Conversations().FindByID(ctx, cv.ID)

	tests := []struct {
		name, sender, text string
	}{
		{"empty text", "alice", ""},
		{"whitespace", "alice", " \n\t "},
		{"no sender", "", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := svc.SendMessage(ctx, tt.sender, cv.ID, tt.text, "")
			if err != nil || msg != nil {
				t.Fatalf("msg=%v err=%v", msg, err)
			}
		})
	}

	msgs, _ := store.Messages().ListByConversation(ctx, cv.ID)
	if len(msgs) != 0 {
		t.Fatalf("messages=%v", msgs)
	}
	after, _ := store.Conversations().FindByID(ctx, cv.ID)
	if after.UnreadCount["bob"] != before.UnreadCount["bob"] || after.LastMessage.Text != before.LastMessage.Text {
		t.Fatalf("conversation mutated: %+v", after)
	}
}

func TestSendMessageErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMessaging(t)
	cv := mustConversation(t, svc)

	if _, err := svc.SendMessage(ctx, "alice", "missing", "hi", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing conversation err=%v", err)
	}
	if _, err := svc.SendMessage(ctx, "mallory", cv.ID, "hi", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider err=%v", err)
	}
}

func TestApplicationScenario(t *testing.T) {
	ctx := context.Background()
	svc, store := newMessaging(t)

	cv, err := svc.CreateJobConversation(ctx, "job-1", "Backend Engineer", "bob", "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SendMessage(ctx, "alice", cv.ID, "I'm interested.", "bob"); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, _ := store.Conversations().FindByID(ctx, cv.ID)
	if got.UnreadCount["bob"] != 2 || got.UnreadCount["alice"] != 0 {
		t.Fatalf("unread after apply=%v, want bob:2 alice:0", got.UnreadCount)
	}

	if err := svc.MarkAsRead(ctx, "bob", cv.ID); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	got, _ = store.Conversations().FindByID(ctx, cv.ID)
	if got.UnreadCount["bob"] != 0 || got.UnreadCount["alice"] != 0 {
		t.Fatalf("unread after read=%v", got.UnreadCount)
	}
	msgs, _ := svc.ListMessages(ctx, "bob", cv.ID)
	if len(msgs) != 1 || !msgs[0].Read {
		t.Fatalf("messages=%+v", msgs)
	}
}

func TestMarkAsReadLeavesOwnMessages(t *testing.T) {
	ctx := context.Background()
	svc, store := newMessaging(t)
	cv := mustConversation(t, svc)

	_, _ = svc.SendMessage(ctx, "alice", cv.ID, "one", "")
	_, _ = svc.SendMessage(ctx, "bob", cv.ID, "two", "")
	_, _ = svc.SendMessage(ctx, "alice", cv.ID, "three", "")

	if err := svc.MarkAsRead(ctx, "bob", cv.ID); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	msgs, _ := store.Messages().ListByConversation(ctx, cv.ID)
	for _, m := range msgs {
		wantRead := m.SenderID == "alice"
		if m.Read != wantRead {
			t.Fatalf("message %q from %s read=%v", m.Text, m.SenderID, m.Read)
		}
	}
	got, _ := store.Conversations().FindByID(ctx, cv.ID)
	if got.UnreadCount["alice"] != 1 {
		t.Fatalf("alice count touched: %v", got.UnreadCount)
	}
}

func TestMarkAsReadIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store := newMessaging(t)
	cv := mustConversation(t, svc)
	_, _ = svc.SendMessage(ctx, "alice", cv.ID, "hello", "")

	if err := svc.MarkAsRead(ctx, "bob", cv.ID); err != nil {
		t.Fatalf("first: %v", err)
	}
	first, _ := store.Conversations().FindByID(ctx, cv.ID)
	firstMsgs, _ := svc.ListMessages(ctx, "bob", cv.ID)

	if err := svc.MarkAsRead(ctx, "bob", cv.ID); err != nil {
		t.Fatalf("second: %v", err)
	}
	second, _ := store.Conversations().FindByID(ctx, cv.ID)
	secondMsgs, _ := svc.ListMessages(ctx, "bob", cv.ID)

	if first.UnreadCount["bob"] != second.UnreadCount["bob"] || first.UnreadCount["alice"] != second.UnreadCount["alice"] {
		t.Fatalf("counts differ: %v vs %v", first.UnreadCount, second.UnreadCount)
	}
	for i := range firstMsgs {
		if firstMsgs[i].Read != secondMsgs[i].Read {
			t.Fatalf("read flags differ at %d", i)
		}
	}
}

func TestMarkAsReadNoOpsAndErrors(t *testing.T) {
	ctx := context.Background()
	svc, store := newMessaging(t)
	cv := mustConversation(t, svc)

	if err := svc.MarkAsRead(ctx, "mallory", cv.ID); err != nil {
		t.Fatalf("outsider err=%v", err)
	}
	if err := svc.MarkAsRead(ctx, "", cv.ID); err != nil {
		t.Fatalf("anonymous err=%v", err)
	}
	if err := svc.MarkAsRead(ctx, "alice", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err=%v", err)
	}
	got, _ := store.Conversations().FindByID(ctx, cv.ID)
	if got.UnreadCount["bob"] != 1 {
		t.Fatalf("counts changed: %v", got.UnreadCount)
	}
}

func TestListMessagesSorted(t *testing.T) {
	ctx := context.Background()
	svc, store := newMessaging(t)
	cv := mustConversation(t, svc)
	base := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	for _, off := range []int{5, 1, 3, 2, 4} {
		m := &model.Message{ConversationID: cv.ID, SenderID: "alice", Text: "m", Timestamp: base.Add(time.Duration(off) * time.Minute)}
		if err := store.Messages().Create(ctx, m); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	msgs, err := svc.ListMessages(ctx, "alice", cv.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp.Before(msgs[i-1].Timestamp) {
			t.Fatalf("not ascending at %d: %v", i, msgs)
		}
	}
	if _, err := svc.ListMessages(ctx, "mallory", cv.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider err=%v", err)
	}
}

func TestInbox(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMessaging(t)
	first := mustConversation(t, svc)
	second, _ := svc.CreateJobConversation(ctx, "job-2", "QA", "carol", "alice")
	_, _ = svc.SendMessage(ctx, "bob", first.ID, "ping", "")

	inbox, err := svc.Inbox(ctx, "alice")
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(inbox.Conversations) != 2 || inbox.Conversations[0].ID != first.ID || inbox.Conversations[1].ID != second.ID {
		t.Fatalf("order=%v", inbox.Conversations)
	}
	if inbox.UnreadCount != 1 {
		t.Fatalf("alice badge=%d", inbox.UnreadCount)
	}

	inbox, _ = svc.Inbox(ctx, "")
	if len(inbox.Conversations) != 0 || inbox.UnreadCount != 0 {
		t.Fatalf("anonymous inbox=%+v", inbox)
	}
}

func TestConcurrentSendAndMarkAsReadConverge(t *testing.T) {
	ctx := context.Background()
	svc, store := newMessaging(t)
	cv := mustConversation(t, svc)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := svc.SendMessage(ctx, "alice", cv.ID, "hi", ""); err != nil {
				t.Errorf("send: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := svc.MarkAsRead(ctx, "bob", cv.ID); err != nil {
				t.Errorf("read: %v", err)
			}
		}()
	}
	wg.Wait()

	if err := svc.MarkAsRead(ctx, "bob", cv.ID); err != nil {
		t.Fatalf("final read: %v", err)
	}
	got, _ := store.Conversations().FindByID(ctx, cv.ID)
	if got.UnreadCount["bob"] != 0 || got.UnreadCount["alice"] != 0 {
		t.Fatalf("did not converge: %v", got.UnreadCount)
	}
	msgs, _ := store.Messages().ListByConversation(ctx, cv.ID)
	if len(msgs) != 20 {
		t.Fatalf("messages=%d", len(msgs))
	}
	for _, m := range msgs {
		if !m.Read {
			t.Fatalf("message %s still unread", m.ID)
		}
	}
}

func TestWatchInbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, _ := newMessaging(t)

	ch, err := svc.WatchInbox(ctx, "bob")
	if err != nil {
		t.Fatalf("WatchInbox: %v", err)
	}
	recv := func() Inbox {
		t.Helper()
		select {
		case in := <-ch:
			return in
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out")
		}
		return Inbox{}
	}
	if in := recv(); in.UnreadCount != 0 {
		t.Fatalf("initial=%+v", in)
	}
	mustConversation(t, svc)
	if in := recv(); in.UnreadCount != 1 || len(in.Conversations) != 1 {
		t.Fatalf("after create=%+v", in)
	}

	if _, err := svc.WatchInbox(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("anonymous watch err=%v", err)
	}
}

type failingConversations struct {
	repository.ConversationRepository
	err error
}

func (f failingConversations) Update(context.Context, string, model.ConversationUpdate) error {
	return f.err
}

func (f failingConversations) ListByParticipant(context.Context, string) ([]model.Conversation, error) {
	return nil, f.err
}

type failingMessages struct {
	repository.MessageRepository
	err error
}

func (f failingMessages) Create(context.Context, *model.Message) error { return f.err }

func (f failingMessages) MarkRead(context.Context, []string) error { return f.err }

func TestBackendUnavailable(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	boom := errors.New("deadline exceeded")
	seed := NewMessagingService(store.Conversations(), store.Messages(), nil)
	cv := mustConversation(t, seed)
	_, _ = seed.SendMessage(ctx, "alice", cv.ID, "hello", "")

	badConvs := NewMessagingService(failingConversations{store.Conversations(), boom}, store.Messages(), nil)
	badMsgs := NewMessagingService(store.Conversations(), failingMessages{store.Messages(), boom}, nil)

	if _, err := badMsgs.SendMessage(ctx, "alice", cv.ID, "again", ""); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("send append err=%v", err)
	}
	if _, err := badConvs.SendMessage(ctx, "alice", cv.ID, "again", ""); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("send update err=%v", err)
	}
	if _, err := badConvs.Inbox(ctx, "bob"); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("inbox err=%v", err)
	}

	// Counter reset lands even though flagging fails.
	if err := badMsgs.MarkAsRead(ctx, "bob", cv.ID); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("mark err=%v", err)
	}
	got, _ := store.Conversations().FindByID(ctx, cv.ID)
	if got.UnreadCount["bob"] != 0 {
		t.Fatalf("bob=%d, want 0", got.UnreadCount["bob"])
	}
	msgs, _ := store.Messages().ListByConversation(ctx, cv.ID)
	for _, m := range msgs {
		if m.Read {
			t.Fatalf("message %s flagged despite failure", m.ID)
		}
	}
}
