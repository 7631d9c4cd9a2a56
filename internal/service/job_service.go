package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/shinyyama/zaposlitev-backend/internal/currency"
	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"github.com/shinyyama/zaposlitev-backend/internal/repository"
	"github.com/shinyyama/zaposlitev-backend/internal/reqctx"
)

var jobTypes = map[string]bool{
	model.JobTypeFullTime:   true,
	model.JobTypePartTime:   true,
	model.JobTypeFreelance:  true,
	model.JobTypeContract:   true,
	model.JobTypeInternship: true,
	model.JobTypeTemporary:  true,
}

// SalaryConverter normalizes a posted salary to USD.
type SalaryConverter interface {
	ToUSD(ctx context.Context, amount float64, currency string) (float64, error)
}

// JobInput is what a poster submits. Salary is in Currency; zero means not specified.
type JobInput struct {
	Title        string
	Company      string
	Location     string
	JobType      string
	Description  string
	Requirements string
	Salary       float64
	Currency     string
}

type JobService interface {
	Create(ctx context.Context, uid string, in JobInput) (*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	Update(ctx context.Context, uid, id string, in JobInput) (*model.Job, error)
	Delete(ctx context.Context, uid, id string) error
	List(ctx context.Context, f JobFilter, page, perPage int) (JobPage, error)
}

type jobService struct {
	repo repository.JobRepository
	conv SalaryConverter
	now  func() time.Time
}

func NewJobService(repo repository.JobRepository, conv SalaryConverter, now func() time.Time) JobService {
	if now == nil {
		now = time.Now
	}
	return &jobService{repo: repo, conv: conv, now: now}
}

func (in *JobInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Company = strings.TrimSpace(in.Company)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	in.Requirements = strings.TrimSpace(in.Requirements)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Title == "" || len(in.Title) > 120 {
		return errors.New("invalid title")
	}
	if in.Company == "" || in.Location == "" || in.Description == "" {
		return errors.New("company, location and description are required")
	}
	if in.JobType == "" {
		in.JobType = model.JobTypeFullTime
	}
	if !jobTypes[in.JobType] {
		return fmt.Errorf("unknown job type %q", in.JobType)
	}
	if in.Currency == "" {
		in.Currency = "USD"
	}
	if !currency.IsSupported(in.Currency) {
		return fmt.Errorf("unsupported currency %q", in.Currency)
	}
	if in.Salary < 0 || math.IsNaN(in.Salary) || math.IsInf(in.Salary, 0) {
		return errors.New("invalid salary")
	}
	return nil
}

func (s *jobService) applyInput(ctx context.Context, job *model.Job, in JobInput) error {
	job.Title = in.Title
	job.Company = in.Company
	job.Location = in.Location
	job.JobType = in.JobType
	job.Description = in.Description
	job.Requirements = in.Requirements
	job.OriginalSalary = in.Salary
	job.OriginalCurrency = in.Currency
	job.Salary = 0
	if in.Salary == 0 {
		return nil
	}
	usd, err := s.conv.ToUSD(ctx, in.Salary, in.Currency)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	job.Salary = math.Round(usd)
	return nil
}

func (s *jobService) Create(ctx context.Context, uid string, in JobInput) (*model.Job, error) {
	if uid == "" {
		return nil, ErrForbidden
	}
	if err := in.normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	now := s.now()
	job := &model.Job{PostedBy: uid, CreatedAt: now, UpdatedAt: now}
	if err := s.applyInput(ctx, job, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, job); err != nil {
		log.Printf("[jobs] rid=%s stage=create err=%v", reqctx.RID(ctx), err)
		return nil, storeErr(err)
	}
	return job, nil
}

func (s *jobService) Get(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return job, nil
}

func (s *jobService) owned(ctx context.Context, uid, id string) (*model.Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if uid == "" || job.PostedBy != uid {
		return nil, ErrForbidden
	}
	return job, nil
}

func (s *jobService) Update(ctx context.Context, uid, id string, in JobInput) (*model.Job, error) {
	job, err := s.owned(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.applyInput(ctx, job, in); err != nil {
		return nil, err
	}
	job.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, job); err != nil {
		return nil, storeErr(err)
	}
	return job, nil
}

func (s *jobService) Delete(ctx context.Context, uid, id string) error {
	if _, err := s.owned(ctx, uid, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr(err)
	}
	log.Printf("[jobs] rid=%s job=%s stage=deleted", reqctx.RID(ctx), id)
	return nil
}

func (s *jobService) List(ctx context.Context, f JobFilter, page, perPage int) (JobPage, error) {
	jobs, err := s.repo.List(ctx)
	if err != nil {
		return JobPage{}, storeErr(err)
	}
	return Paginate(FilterJobs(jobs, f), page, perPage), nil
}
