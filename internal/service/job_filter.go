package service

import (
	"math"
	"strings"

	"github.com/shinyyama/zaposlitev-backend/internal/model"
)

const (
	DefaultPerPage = 6
	MaxPerPage     = 50
)

// JobFilter narrows the job list. Zero-valued fields match everything.
type JobFilter struct {
	Search      string
	JobType     string
	Location    string
	SalaryRange string
	PostedBy    string
}

// SalaryBounds is an inclusive USD range.
type SalaryBounds struct {
	Min float64
	Max float64
}

// ParseSalaryRange maps the bucket names used by the listing page. Unknown or
// empty buckets are unbounded.
func ParseSalaryRange(r string) SalaryBounds {
	switch r {
	case "0-30000":
		return SalaryBounds{Min: 0, Max: 30000}
	case "30000-50000":
		return SalaryBounds{Min: 30000, Max: 50000}
	case "50000-80000":
		return SalaryBounds{Min: 50000, Max: 80000}
	case "80000+":
		return SalaryBounds{Min: 80000, Max: math.Inf(1)}
	default:
		return SalaryBounds{Min: 0, Max: math.Inf(1)}
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Match reports whether j passes every set criterion.
func (f JobFilter) Match(j model.Job) bool {
	if q := strings.TrimSpace(f.Search); q != "" {
		if !containsFold(j.Title, q) && !containsFold(j.Company, q) && !containsFold(j.Description, q) {
			return false
		}
	}
	if f.JobType != "" && j.JobType != f.JobType {
		return false
	}
	if loc := strings.TrimSpace(f.Location); loc != "" && !containsFold(j.Location, loc) {
		return false
	}
	if f.SalaryRange != "" {
		b := ParseSalaryRange(f.SalaryRange)
		if j.Salary < b.Min || j.Salary > b.Max {
			return false
		}
	}
	if f.PostedBy != "" && j.PostedBy != f.PostedBy {
		return false
	}
	return true
}

// FilterJobs keeps the input order.
func FilterJobs(jobs []model.Job, f JobFilter) []model.Job {
	out := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if f.Match(j) {
			out = append(out, j)
		}
	}
	return out
}

type JobPage struct {
	Jobs       []model.Job `json:"jobs"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"perPage"`
	TotalPages int         `json:"totalPages"`
}

// Paginate slices jobs into 1-based pages. Out of range pages come back empty.
func Paginate(jobs []model.Job, page, perPage int) JobPage {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if page < 1 {
		page = 1
	}
	total := len(jobs)
	p := JobPage{
		Jobs:       []model.Job{},
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}
	start := (page - 1) * perPage
	if start >= total {
		return p
	}
	end := start + perPage
	if end > total {
		end = total
	}
	p.Jobs = jobs[start:end]
	return p
}
