package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shinyyama/zaposlitev-backend/internal/currency"
	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"github.com/shinyyama/zaposlitev-backend/internal/repository"
)

type fixedRates map[string]float64

func (r fixedRates) ToUSD(_ context.Context, amount float64, currency string) (float64, error) {
	rate, ok := r[currency]
	if !ok {
		return 0, fmt.Errorf("no rate for %s", currency)
	}
	return amount / rate, nil
}

func newJobs(t *testing.T) (JobService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	clock := &stepClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	rates := fixedRates{"USD": 1, "EUR": 0.85, "GBP": 0.73}
	return NewJobService(store.Jobs(), rates, clock.Now), store
}

func validInput() JobInput {
	return JobInput{
		Title:       " Backend Engineer ",
		Company:     "Acme",
		Location:    "Ljubljana",
		JobType:     model.JobTypeFullTime,
		Description: "Build APIs",
		Salary:      85000,
		Currency:    "eur",
	}
}

func TestJobCreate(t *testing.T) {
	svc, _ := newJobs(t)
	job, err := svc.Create(context.Background(), "bob", validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.ID == "" || job.PostedBy != "bob" || job.Title != "Backend Engineer" {
		t.Fatalf("job=%+v", job)
	}
	if job.OriginalCurrency != "EUR" || job.OriginalSalary != 85000 {
		t.Fatalf("original=%v %s", job.OriginalSalary, job.OriginalCurrency)
	}
	if want := math.Round(85000 / 0.85); job.Salary != want {
		t.Fatalf("salary=%v, want %v", job.Salary, want)
	}
}

func TestJobCreateRejects(t *testing.T) {
	svc, _ := newJobs(t)
	tests := []struct {
		name   string
		mutate func(*JobInput)
	}{
		{"blank title", func(in *JobInput) { in.Title = "  " }},
		{"no company", func(in *JobInput) { in.Company = "" }},
		{"bad type", func(in *JobInput) { in.JobType = "gig" }},
		{"bad currency", func(in *JobInput) { in.Currency = "JPY" }},
		{"negative salary", func(in *JobInput) { in.Salary = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			if _, err := svc.Create(context.Background(), "bob", in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err=%v", err)
			}
		})
	}
}

func TestJobCreateAcceptsSupportedCurrencies(t *testing.T) {
	store := repository.NewMemoryStore()
	rates := fixedRates{}
	for _, code := range currency.Supported {
		rates[code] = 1
	}
	svc := NewJobService(store.Jobs(), rates, nil)
	for _, code := range currency.Supported {
		in := validInput()
		in.Currency = code
		job, err := svc.Create(context.Background(), "bob", in)
		if err != nil {
			t.Fatalf("%s: %v", code, err)
		}
		if job.OriginalCurrency != code {
			t.Fatalf("%s: original currency=%s", code, job.OriginalCurrency)
		}
	}
}

func TestJobOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newJobs(t)
	job, _ := svc.Create(ctx, "bob", validInput())

	in := validInput()
	in.Title = "Senior Backend Engineer"
	in.Salary = 0
	if _, err := svc.Update(ctx, "alice", job.ID, in); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign update err=%v", err)
	}
	updated, err := svc.Update(ctx, "bob", job.ID, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Senior Backend Engineer" || updated.Salary != 0 || !updated.UpdatedAt.After(job.CreatedAt) {
		t.Fatalf("updated=%+v", updated)
	}

	if err := svc.Delete(ctx, "alice", job.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign delete err=%v", err)
	}
	if err := svc.Delete(ctx, "bob", job.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, job.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err=%v", err)
	}
}

func TestJobList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newJobs(t)
	for i := 0; i < 8; i++ {
		in := validInput()
		in.Title = fmt.Sprintf("Job %d", i)
		in.Currency = "USD"
		in.Salary = float64(20000 + i*10000)
		if _, err := svc.Create(ctx, "bob", in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	page, err := svc.List(ctx, JobFilter{}, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 8 || page.TotalPages != 2 || page.PerPage != DefaultPerPage || len(page.Jobs) != 2 {
		t.Fatalf("page=%+v", page)
	}

	page, _ = svc.List(ctx, JobFilter{SalaryRange: "30000-50000"}, 1, 10)
	if page.Total != 3 {
		t.Fatalf("salary filter total=%d", page.Total)
	}
}
