package ai

import (
	"fmt"
	"strings"

	"github.com/shinyyama/zaposlitev-backend/internal/currency"
	"github.com/shinyyama/zaposlitev-backend/internal/model"
)

const systemPrompt = `You are a helpful assistant on a job board. Answer the candidate's question about the posting below concisely, in the language of the question.
Only use facts from the posting. If the posting does not say, answer that the employer has not specified it and suggest asking them through the application messages.
If the question is unrelated to the job, politely guide the user back to the posting.`

const maxQuestionLen = 500

// BuildJobPrompt renders the posting as plain text for the model.
func BuildJobPrompt(job model.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", job.Title)
	fmt.Fprintf(&b, "Company: %s\n", job.Company)
	fmt.Fprintf(&b, "Location: %s\n", job.Location)
	fmt.Fprintf(&b, "Type: %s\n", job.JobType)
	fmt.Fprintf(&b, "Salary: %s\n", currency.FormatCurrency(job.Salary, "USD"))
	if job.OriginalCurrency != "" && job.OriginalCurrency != "USD" && job.OriginalSalary > 0 {
		fmt.Fprintf(&b, "Salary as posted: %s\n", currency.FormatCurrency(job.OriginalSalary, job.OriginalCurrency))
	}
	fmt.Fprintf(&b, "Description:\n%s\n", job.Description)
	if req := strings.TrimSpace(job.Requirements); req != "" {
		fmt.Fprintf(&b, "Requirements:\n%s\n", req)
	}
	return b.String()
}

// CleanQuestion trims q and caps its length in runes.
func CleanQuestion(q string) string {
	q = strings.TrimSpace(q)
	r := []rune(q)
	if len(r) > maxQuestionLen {
		q = string(r[:maxQuestionLen])
	}
	return q
}
