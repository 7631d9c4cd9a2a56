package service

import (
	"context"
	"fmt"
	"log"

	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"github.com/shinyyama/zaposlitev-backend/internal/repository"
	"github.com/shinyyama/zaposlitev-backend/internal/reqctx"
)

// Application is the outcome of applying to a job. Message is nil when no
// cover text was sent.
type Application struct {
	Conversation *model.Conversation `json:"conversation"`
	Message      *model.Message      `json:"message,omitempty"`
}

type ApplicationService interface {
	Apply(ctx context.Context, applicantUID, jobID, cover string) (*Application, error)
}

type applicationService struct {
	jobs      repository.JobRepository
	messaging MessagingService
}

func NewApplicationService(jobs repository.JobRepository, messaging MessagingService) ApplicationService {
	return &applicationService{jobs: jobs, messaging: messaging}
}

func (s *applicationService) Apply(ctx context.Context, applicantUID, jobID, cover string) (*Application, error) {
	if applicantUID == "" {
		return nil, fmt.Errorf("%w: sign in to apply", ErrInvalidInput)
	}
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, storeErr(err)
	}
	if job.PostedBy == applicantUID {
		return nil, fmt.Errorf("%w: cannot apply to your own job", ErrInvalidInput)
	}

	cv, err := s.messaging.CreateJobConversation(ctx, job.ID, job.Title, job.PostedBy, applicantUID)
	if err != nil {
		return nil, err
	}
	app := &Application{Conversation: cv}

	// The conversation already counts as one unread for the employer; a cover
	// message adds a second.
	msg, err := s.messaging.SendMessage(ctx, applicantUID, cv.ID, cover, job.PostedBy)
	if err != nil {
		log.Printf("[apply] rid=%s job=%s conv=%s stage=cover_message err=%v", reqctx.RID(ctx), job.ID, cv.ID, err)
		return nil, err
	}
	if msg == nil {
		return app, nil
	}
	app.Message = msg
	if fresh, err := s.messaging.Get(ctx, applicantUID, cv.ID); err == nil {
		app.Conversation = fresh
	}
	return app, nil
}
