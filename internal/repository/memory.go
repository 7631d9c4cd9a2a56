package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shinyyama/zaposlitev-backend/internal/model"
)

// MemoryStore keeps every collection in process. Writes wake all watchers,
// which re-run their query and forward changed snapshots.
type MemoryStore struct {
	mu            sync.RWMutex
	jobs          map[string]model.Job
	conversations map[string]model.Conversation
	messages      map[string]model.Message
	subs          map[int]chan struct{}
	nextSub       int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:          map[string]model.Job{},
		conversations: map[string]model.Conversation{},
		messages:      map[string]model.Message{},
		subs:          map[int]chan struct{}{},
	}
}

func (s *MemoryStore) Jobs() JobRepository                   { return memoryJobs{s} }
func (s *MemoryStore) Conversations() ConversationRepository { return memoryConversations{s} }
func (s *MemoryStore) Messages() MessageRepository           { return memoryMessages{s} }

// notify must be called with s.mu held for writing.
func (s *MemoryStore) notify() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *MemoryStore) subscribe(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

type memoryJobs struct{ s *MemoryStore }

func (r memoryJobs) Create(ctx context.Context, job *model.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job.ID = uuid.NewString()
	r.s.jobs[job.ID] = *job
	r.s.notify()
	return nil
}

func (r memoryJobs) FindByID(ctx context.Context, id string) (*model.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	job, ok := r.s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &job, nil
}

func (r memoryJobs) Update(ctx context.Context, job *model.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	r.s.jobs[job.ID] = *job
	r.s.notify()
	return nil
}

func (r memoryJobs) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.jobs, id)
	r.s.notify()
	return nil
}

func (r memoryJobs) List(ctx context.Context) ([]model.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]model.Job, 0, len(r.s.jobs))
	for _, j := range r.s.jobs {
		list = append(list, j)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

type memoryConversations struct{ s *MemoryStore }

func (r memoryConversations) Create(ctx context.Context, cv *model.Conversation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cv.ID = uuid.NewString()
	r.s.conversations[cv.ID] = cv.Clone()
	r.s.notify()
	return nil
}

func (r memoryConversations) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cv, ok := r.s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cv.Clone()
	return &out, nil
}

func (r memoryConversations) Update(ctx context.Context, id string, u model.ConversationUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cv, ok := r.s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	cv = cv.Clone()
	cv.Apply(u)
	r.s.conversations[id] = cv
	r.s.notify()
	return nil
}

func (r memoryConversations) ListByParticipant(ctx context.Context, uid string) ([]model.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []model.Conversation
	for _, cv := range r.s.conversations {
		if cv.HasParticipant(uid) {
			list = append(list, cv.Clone())
		}
	}
	// Map order is random; keep snapshots comparable between polls.
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r memoryConversations) WatchByParticipant(ctx context.Context, uid string) (<-chan []model.Conversation, error) {
	signal := r.s.subscribe(ctx)
	return watchSnapshots(ctx, "conversations:"+uid, signal, func(ctx context.Context) ([]model.Conversation, error) {
		return r.ListByParticipant(ctx, uid)
	}), nil
}

type memoryMessages struct{ s *MemoryStore }

func (r memoryMessages) Create(ctx context.Context, msg *model.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg.ID = uuid.NewString()
	r.s.messages[msg.ID] = *msg
	r.s.notify()
	return nil
}

func (r memoryMessages) ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	return r.filter(func(m model.Message) bool { return m.ConversationID == conversationID }), nil
}

func (r memoryMessages) ListUnread(ctx context.Context, conversationID, readerUID string) ([]model.Message, error) {
	return r.filter(func(m model.Message) bool {
		return m.ConversationID == conversationID && m.SenderID != readerUID && !m.Read
	}), nil
}

func (r memoryMessages) filter(keep func(model.Message) bool) []model.Message {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []model.Message
	for _, m := range r.s.messages {
		if keep(m) {
			list = append(list, m)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (r memoryMessages) MarkRead(ctx context.Context, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		if _, ok := r.s.messages[id]; !ok {
			return ErrNotFound
		}
	}
	changed := false
	for _, id := range ids {
		m := r.s.messages[id]
		if !m.Read {
			m.Read = true
			r.s.messages[id] = m
			changed = true
		}
	}
	if changed {
		r.s.notify()
	}
	return nil
}

func (r memoryMessages) WatchByConversation(ctx context.Context, conversationID string) (<-chan []model.Message, error) {
	signal := r.s.subscribe(ctx)
	return watchSnapshots(ctx, "messages:"+conversationID, signal, func(ctx context.Context) ([]model.Message, error) {
		return r.ListByConversation(ctx, conversationID)
	}), nil
}
