package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"github.com/shinyyama/zaposlitev-backend/internal/repository"
	"github.com/shinyyama/zaposlitev-backend/internal/reqctx"
)

// MessagingService is the only writer of conversations and messages. Every
// method takes the acting user's uid; an empty uid means nobody is signed in.
type MessagingService interface {
	CreateJobConversation(ctx context.Context, jobID, jobTitle, employerID, applicantID string) (*model.Conversation, error)
	// SendMessage returns a nil message and nil error when there is nothing to send.
	SendMessage(ctx context.Context, senderUID, conversationID, text, recipientID string) (*model.Message, error)
	MarkAsRead(ctx context.Context, uid, conversationID string) error
	Get(ctx context.Context, uid, conversationID string) (*model.Conversation, error)
	Inbox(ctx context.Context, uid string) (Inbox, error)
	ListMessages(ctx context.Context, uid, conversationID string) ([]model.Message, error)
	WatchInbox(ctx context.Context, uid string) (<-chan Inbox, error)
	WatchMessages(ctx context.Context, uid, conversationID string) (<-chan []model.Message, error)
}

type messagingService struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	now      func() time.Time
}

// NewMessagingService wires the two stores. now defaults to time.Now.
func NewMessagingService(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, now func() time.Time) MessagingService {
	if now == nil {
		now = time.Now
	}
	return &messagingService{convRepo: convRepo, msgRepo: msgRepo, now: now}
}

func (s *messagingService) CreateJobConversation(ctx context.Context, jobID, jobTitle, employerID, applicantID string) (*model.Conversation, error) {
	cv, err := model.NewJobConversation(jobID, jobTitle, employerID, applicantID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	// No lookup for an existing thread: every application opens a new one.
	if err := s.convRepo.Create(ctx, cv); err != nil {
		log.Printf("[messaging] rid=%s job=%s stage=create_conversation err=%v", reqctx.RID(ctx), jobID, err)
		return nil, storeErr(err)
	}
	log.Printf("[messaging] rid=%s job=%s conv=%s stage=conversation_created", reqctx.RID(ctx), jobID, cv.ID)
	return cv, nil
}

func (s *messagingService) SendMessage(ctx context.Context, senderUID, conversationID, text, recipientID string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if senderUID == "" || text == "" {
		return nil, nil
	}
	cv, err := s.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !cv.HasParticipant(senderUID) {
		return nil, ErrForbidden
	}
	if recipientID != "" && !cv.HasParticipant(recipientID) {
		log.Printf("[messaging] rid=%s conv=%s stage=send recipient=%s note=not_a_participant", reqctx.RID(ctx), cv.ID, recipientID)
	}

	now := s.now()
	msg, err := model.NewMessage(cv.ID, senderUID, text, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		log.Printf("[messaging] rid=%s conv=%s stage=append_message err=%v", reqctx.RID(ctx), cv.ID, err)
		return nil, storeErr(err)
	}

	// Recipients come from the participant list; the sender's own counter is
	// not written at all.
	unread := make(map[string]int, len(cv.Participants))
	for _, p := range cv.Participants {
		if p != senderUID {
			unread[p] = cv.UnreadFor(p) + 1
		}
	}
	upd := model.ConversationUpdate{
		LastMessage: &model.LastMessage{Text: text, SenderID: senderUID, Timestamp: now},
		UnreadCount: unread,
	}
	if err := s.convRepo.Update(ctx, cv.ID, upd); err != nil {
		log.Printf("[messaging] rid=%s conv=%s msg=%s stage=update_conversation err=%v", reqctx.RID(ctx), cv.ID, msg.ID, err)
		return nil, storeErr(err)
	}
	return msg, nil
}

func (s *messagingService) MarkAsRead(ctx context.Context, uid, conversationID string) error {
	if uid == "" {
		return nil
	}
	cv, err := s.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return storeErr(err)
	}
	if !cv.HasParticipant(uid) || cv.UnreadFor(uid) == 0 {
		return nil
	}
	if err := s.convRepo.Update(ctx, cv.ID, model.ConversationUpdate{UnreadCount: map[string]int{uid: 0}}); err != nil {
		return storeErr(err)
	}

	// The counter is already zero at this point; a failure below leaves the
	// flags behind and is reported as is.
	unread, err := s.msgRepo.ListUnread(ctx, cv.ID, uid)
	if err != nil {
		log.Printf("[messaging] rid=%s conv=%s stage=list_unread err=%v", reqctx.RID(ctx), cv.ID, err)
		return storeErr(err)
	}
	if len(unread) == 0 {
		return nil
	}
	ids := make([]string, 0, len(unread))
	for _, m := range unread {
		ids = append(ids, m.ID)
	}
	if err := s.msgRepo.MarkRead(ctx, ids); err != nil {
		log.Printf("[messaging] rid=%s conv=%s stage=mark_read count=%d err=%v", reqctx.RID(ctx), cv.ID, len(ids), err)
		return storeErr(err)
	}
	return nil
}

func (s *messagingService) participantConversation(ctx context.Context, uid, conversationID string) (*model.Conversation, error) {
	cv, err := s.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !cv.HasParticipant(uid) {
		return nil, ErrForbidden
	}
	return cv, nil
}

func (s *messagingService) Get(ctx context.Context, uid, conversationID string) (*model.Conversation, error) {
	return s.participantConversation(ctx, uid, conversationID)
}

func (s *messagingService) Inbox(ctx context.Context, uid string) (Inbox, error) {
	if uid == "" {
		return Inbox{Conversations: []model.Conversation{}}, nil
	}
	convs, err := s.convRepo.ListByParticipant(ctx, uid)
	if err != nil {
		return Inbox{}, storeErr(err)
	}
	return BuildInbox(uid, convs), nil
}

func (s *messagingService) ListMessages(ctx context.Context, uid, conversationID string) ([]model.Message, error) {
	cv, err := s.participantConversation(ctx, uid, conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.msgRepo.ListByConversation(ctx, cv.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	SortMessages(msgs)
	return msgs, nil
}

func (s *messagingService) WatchInbox(ctx context.Context, uid string) (<-chan Inbox, error) {
	if uid == "" {
		return nil, ErrInvalidInput
	}
	snaps, err := s.convRepo.WatchByParticipant(ctx, uid)
	if err != nil {
		return nil, storeErr(err)
	}
	out := make(chan Inbox, 1)
	go func() {
		defer close(out)
		for convs := range snaps {
			select {
			case out <- BuildInbox(uid, convs):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *messagingService) WatchMessages(ctx context.Context, uid, conversationID string) (<-chan []model.Message, error) {
	cv, err := s.participantConversation(ctx, uid, conversationID)
	if err != nil {
		return nil, err
	}
	snaps, err := s.msgRepo.WatchByConversation(ctx, cv.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	out := make(chan []model.Message, 1)
	go func() {
		defer close(out)
		for msgs := range snaps {
			sorted := append([]model.Message(nil), msgs...)
			SortMessages(sorted)
			select {
			case out <- sorted:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
