package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	jobsCollection          = "jobs"
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
)

func isFirestoreNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

type firestoreJobRepository struct {
	client *firestore.Client
}

func NewFirestoreJobRepository(client *firestore.Client) JobRepository {
	return &firestoreJobRepository{client: client}
}

func (r *firestoreJobRepository) Create(ctx context.Context, job *model.Job) error {
	ref, _, err := r.client.Collection(jobsCollection).Add(ctx, job)
	if err != nil {
		return err
	}
	job.ID = ref.ID
	return nil
}

func (r *firestoreJobRepository) FindByID(ctx context.Context, id string) (*model.Job, error) {
	snap, err := r.client.Collection(jobsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isFirestoreNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var job model.Job
	if err := snap.DataTo(&job); err != nil {
		return nil, err
	}
	job.ID = snap.Ref.ID
	return &job, nil
}

func (r *firestoreJobRepository) Update(ctx context.Context, job *model.Job) error {
	ref := r.client.Collection(jobsCollection).Doc(job.ID)
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if isFirestoreNotFound(err) {
				return ErrNotFound
			}
			return err
		}
		return tx.Set(ref, job)
	})
}

func (r *firestoreJobRepository) Delete(ctx context.Context, id string) error {
	ref := r.client.Collection(jobsCollection).Doc(id)
	_, err := ref.Delete(ctx, firestore.Exists)
	if isFirestoreNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (r *firestoreJobRepository) List(ctx context.Context) ([]model.Job, error) {
	docs, err := r.client.Collection(jobsCollection).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, err
	}
	list := make([]model.Job, 0, len(docs))
	for _, d := range docs {
		var job model.Job
		if err := d.DataTo(&job); err != nil {
			return nil, err
		}
		job.ID = d.Ref.ID
		list = append(list, job)
	}
	return list, nil
}

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) ConversationRepository {
	return &firestoreConversationRepository{client: client}
}

func decodeConversation(snap *firestore.DocumentSnapshot) (model.Conversation, error) {
	var cv model.Conversation
	if err := snap.DataTo(&cv); err != nil {
		return cv, err
	}
	cv.ID = snap.Ref.ID
	if err := cv.Validate(); err != nil {
		return cv, err
	}
	return cv, nil
}

// decodeConversations drops documents whose shape is broken instead of
// failing the whole listing.
func decodeConversations(docs []*firestore.DocumentSnapshot) []model.Conversation {
	list := make([]model.Conversation, 0, len(docs))
	for _, d := range docs {
		cv, err := decodeConversation(d)
		if err != nil {
			log.Printf("[firestore] conv=%s stage=decode err=%v", d.Ref.ID, err)
			continue
		}
		list = append(list, cv)
	}
	return list
}

func (r *firestoreConversationRepository) Create(ctx context.Context, cv *model.Conversation) error {
	ref, _, err := r.client.Collection(conversationsCollection).Add(ctx, cv)
	if err != nil {
		return err
	}
	cv.ID = ref.ID
	return nil
}

func (r *firestoreConversationRepository) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	snap, err := r.client.Collection(conversationsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isFirestoreNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	cv, err := decodeConversation(snap)
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *firestoreConversationRepository) Update(ctx context.Context, id string, u model.ConversationUpdate) error {
	var updates []firestore.Update
	if u.LastMessage != nil {
		updates = append(updates, firestore.Update{Path: "lastMessage", Value: *u.LastMessage})
	}
	for uid, n := range u.UnreadCount {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{"unreadCount", uid}, Value: n})
	}
	if len(updates) == 0 {
		return nil
	}
	_, err := r.client.Collection(conversationsCollection).Doc(id).Update(ctx, updates)
	if isFirestoreNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (r *firestoreConversationRepository) participantQuery(uid string) firestore.Query {
	return r.client.Collection(conversationsCollection).Where("participants", "array-contains", uid)
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, uid string) ([]model.Conversation, error) {
	docs, err := r.participantQuery(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return decodeConversations(docs), nil
}

func (r *firestoreConversationRepository) WatchByParticipant(ctx context.Context, uid string) (<-chan []model.Conversation, error) {
	it := r.participantQuery(uid).Snapshots(ctx)
	return forwardSnapshots(ctx, it, "conversations:"+uid, decodeConversations), nil
}

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) MessageRepository {
	return &firestoreMessageRepository{client: client}
}

func decodeMessages(docs []*firestore.DocumentSnapshot) []model.Message {
	list := make([]model.Message, 0, len(docs))
	for _, d := range docs {
		var m model.Message
		if err := d.DataTo(&m); err != nil {
			log.Printf("[firestore] msg=%s stage=decode err=%v", d.Ref.ID, err)
			continue
		}
		m.ID = d.Ref.ID
		if err := m.Validate(); err != nil {
			log.Printf("[firestore] msg=%s stage=validate err=%v", d.Ref.ID, err)
			continue
		}
		list = append(list, m)
	}
	return list
}

func (r *firestoreMessageRepository) Create(ctx context.Context, msg *model.Message) error {
	ref, _, err := r.client.Collection(messagesCollection).Add(ctx, msg)
	if err != nil {
		return err
	}
	msg.ID = ref.ID
	return nil
}

func (r *firestoreMessageRepository) conversationQuery(conversationID string) firestore.Query {
	return r.client.Collection(messagesCollection).Where("conversationId", "==", conversationID)
}

func (r *firestoreMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	docs, err := r.conversationQuery(conversationID).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return decodeMessages(docs), nil
}

func (r *firestoreMessageRepository) ListUnread(ctx context.Context, conversationID, readerUID string) ([]model.Message, error) {
	docs, err := r.conversationQuery(conversationID).
		Where("senderId", "!=", readerUID).
		Where("read", "==", false).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, err
	}
	return decodeMessages(docs), nil
}

func (r *firestoreMessageRepository) MarkRead(ctx context.Context, ids []string) error {
	ids = uniqueIDs(ids)
	coll := r.client.Collection(messagesCollection)
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, coll.Doc(id))
	}
	for start := 0; start < len(refs); start += MarkReadChunk {
		end := min(start+MarkReadChunk, len(refs))
		snaps, err := r.client.GetAll(ctx, refs[start:end])
		if err != nil {
			return fmt.Errorf("read messages: %w", err)
		}
		for _, snap := range snaps {
			if !snap.Exists() {
				return ErrNotFound
			}
		}
	}
	for start := 0; start < len(refs); start += MarkReadChunk {
		end := min(start+MarkReadChunk, len(refs))
		batch := r.client.Batch()
		for _, ref := range refs[start:end] {
			batch.Update(ref, []firestore.Update{{Path: "read", Value: true}})
		}
		if _, err := batch.Commit(ctx); err != nil {
			if isFirestoreNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("commit read batch: %w", err)
		}
	}
	return nil
}

func (r *firestoreMessageRepository) WatchByConversation(ctx context.Context, conversationID string) (<-chan []model.Message, error) {
	it := r.conversationQuery(conversationID).Snapshots(ctx)
	return forwardSnapshots(ctx, it, "messages:"+conversationID, decodeMessages), nil
}

// forwardSnapshots pumps a firestore snapshot iterator into a channel until
// ctx is done or the listener fails.
func forwardSnapshots[T any](ctx context.Context, it *firestore.QuerySnapshotIterator, tag string, decode func([]*firestore.DocumentSnapshot) []T) <-chan []T {
	out := make(chan []T, 1)
	go func() {
		defer close(out)
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
					log.Printf("[firestore] tag=%s stage=listen err=%v", tag, err)
				}
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				log.Printf("[firestore] tag=%s stage=read err=%v", tag, err)
				continue
			}
			select {
			case out <- decode(docs):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
