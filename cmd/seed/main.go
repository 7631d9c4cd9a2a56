package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/joho/godotenv"
	"github.com/shinyyama/zaposlitev-backend/internal/config"
	"github.com/shinyyama/zaposlitev-backend/internal/firebaseapp"
	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"github.com/shinyyama/zaposlitev-backend/internal/repository"
)

type seedJob struct {
	Title    string
	Company  string
	Location string
	JobType  string
	Salary   float64
	Currency string
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	var app *firebase.App
	if cfg.StoreDriver == config.DriverFirestore {
		app, err = firebaseapp.New(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			return fmt.Errorf("firebase app: %w", err)
		}
	}
	stores, err := repository.Open(ctx, cfg, app)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer stores.Close()

	canSeed, err := shouldSeed(ctx, stores.Jobs)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("jobs already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	poster := os.Getenv("SEED_POSTED_BY")
	if poster == "" {
		poster = "seed-employer"
	}
	now := time.Now().UTC()
	jobs := buildSeedJobs()
	for idx, sj := range jobs {
		job := toJob(sj, poster, now.Add(-time.Duration(idx)*time.Hour))
		if err := stores.Jobs.Create(ctx, job); err != nil {
			return fmt.Errorf("create job %q: %w", sj.Title, err)
		}
	}
	log.Printf("seeded %d jobs for %s", len(jobs), poster)
	return nil
}

// Seed rates are fixed so the seed does not depend on the rate API.
var seedRates = map[string]float64{"USD": 1, "EUR": 0.85, "GBP": 0.73}

func toJob(sj seedJob, poster string, created time.Time) *model.Job {
	title := strings.TrimSpace(sj.Title)
	return &model.Job{
		Title:            title,
		Company:          sj.Company,
		Location:         sj.Location,
		JobType:          sj.JobType,
		Description:      fmt.Sprintf("%s at %s in %s. Friendly team, modern stack, flexible hours.", title, sj.Company, sj.Location),
		Requirements:     "2+ years of relevant experience. Good communication skills in English.",
		Salary:           math.Round(sj.Salary / seedRates[sj.Currency]),
		OriginalSalary:   sj.Salary,
		OriginalCurrency: sj.Currency,
		PostedBy:         poster,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
}

func buildSeedJobs() []seedJob {
	type company struct {
		Name     string
		Location string
		Currency string
		Base     float64
		Titles   []string
	}
	companies := []company{
		{Name: "Alpine Software", Location: "Ljubljana, Slovenia", Currency: "EUR", Base: 38000, Titles: []string{"Backend Engineer", "Frontend Developer", "QA Engineer"}},
		{Name: "Danube Logistics", Location: "Maribor, Slovenia", Currency: "EUR", Base: 26000, Titles: []string{"Warehouse Coordinator", "Dispatcher"}},
		{Name: "Thames Analytics", Location: "London, UK", Currency: "GBP", Base: 52000, Titles: []string{"Data Scientist", "Data Engineer"}},
		{Name: "Pacific Cloud", Location: "Remote", Currency: "USD", Base: 90000, Titles: []string{"Site Reliability Engineer", "Platform Engineer", "Security Engineer"}},
		{Name: "Karst Design Studio", Location: "Koper, Slovenia", Currency: "EUR", Base: 22000, Titles: []string{"UX Designer", "Design Intern"}},
	}
	types := []string{model.JobTypeFullTime, model.JobTypeContract, model.JobTypePartTime, model.JobTypeFreelance}

	var jobs []seedJob
	for ci, c := range companies {
		for i, t := range c.Titles {
			jt := types[(ci+i)%len(types)]
			if strings.Contains(t, "Intern") {
				jt = model.JobTypeInternship
			}
			jobs = append(jobs, seedJob{
				Title:    t,
				Company:  c.Name,
				Location: c.Location,
				JobType:  jt,
				Salary:   c.Base + float64(i*4000),
				Currency: c.Currency,
			})
		}
	}
	return jobs
}

func shouldSeed(ctx context.Context, jobs repository.JobRepository) (bool, error) {
	existing, err := jobs.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list jobs: %w", err)
	}
	if len(existing) == 0 {
		return true, nil
	}
	force := os.Getenv("FORCE_SEED")
	return strings.EqualFold(force, "true"), nil
}
