package model

import "time"

const (
	JobTypeFullTime   = "full-time"
	JobTypePartTime   = "part-time"
	JobTypeFreelance  = "freelance"
	JobTypeContract   = "contract"
	JobTypeInternship = "internship"
	JobTypeTemporary  = "temporary"
)

// Job is a posting. Salary is annual and normalized to USD; the amount the
// poster typed is kept in OriginalSalary/OriginalCurrency.
type Job struct {
	ID               string    `json:"id" firestore:"-"`
	Title            string    `json:"title" firestore:"title"`
	Company          string    `json:"company" firestore:"company"`
	Location         string    `json:"location" firestore:"location"`
	JobType          string    `json:"jobType" firestore:"jobtype"`
	Description      string    `json:"description" firestore:"description"`
	Requirements     string    `json:"requirements" firestore:"requirements"`
	Salary           float64   `json:"salary" firestore:"salary"`
	OriginalSalary   float64   `json:"originalSalary" firestore:"originalSalary"`
	OriginalCurrency string    `json:"originalCurrency" firestore:"originalCurrency"`
	PostedBy         string    `json:"postedBy" firestore:"postedBy"`
	CreatedAt        time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" firestore:"updatedAt"`
}
