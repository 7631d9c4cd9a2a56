package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"github.com/shinyyama/zaposlitev-backend/internal/config"
	"github.com/shinyyama/zaposlitev-backend/internal/db"
)

// Stores groups the three collections behind one backend.
type Stores struct {
	Jobs          JobRepository
	Conversations ConversationRepository
	Messages      MessageRepository
	close         func() error
}

func (s *Stores) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

func NewMemoryStores() *Stores {
	m := NewMemoryStore()
	return &Stores{Jobs: m.Jobs(), Conversations: m.Conversations(), Messages: m.Messages()}
}

// Open connects the backend selected by cfg.StoreDriver. app is only used by
// the firestore driver.
func Open(ctx context.Context, cfg *config.Config, app *firebase.App) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Printf("[store] driver=memory")
		return NewMemoryStores(), nil
	case config.DriverFirestore:
		if app == nil {
			return nil, errors.New("firestore driver requires a firebase app")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		log.Printf("[store] driver=firestore project=%s", cfg.FirebaseProjectID)
		return &Stores{
			Jobs:          NewFirestoreJobRepository(client),
			Conversations: NewFirestoreConversationRepository(client),
			Messages:      NewFirestoreMessageRepository(client),
			close:         client.Close,
		}, nil
	case config.DriverMySQL:
		conn, err := db.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		if err := AutoMigrate(conn); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		log.Printf("[store] driver=mysql poll=%s", cfg.WatchPollInterval)
		return &Stores{
			Jobs:          NewMySQLJobRepository(conn),
			Conversations: NewMySQLConversationRepository(conn, cfg.WatchPollInterval),
			Messages:      NewMySQLMessageRepository(conn, cfg.WatchPollInterval),
			close:         sqlDB.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
