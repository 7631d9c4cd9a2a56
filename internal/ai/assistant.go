package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"github.com/shinyyama/zaposlitev-backend/internal/reqctx"
	"google.golang.org/genai"
)

var (
	ErrDisabled      = errors.New("assistant disabled: GEMINI_API_KEY is not set")
	ErrEmptyQuestion = errors.New("question is required")
)

const fallbackAnswer = "Sorry, I could not generate an answer. Please contact the employer directly."

// JobAssistant answers candidate questions about a posting through Gemini.
type JobAssistant struct {
	apiKey string
	model  string
}

func NewJobAssistant(apiKey, model string) *JobAssistant {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &JobAssistant{apiKey: apiKey, model: model}
}

func (a *JobAssistant) Enabled() bool {
	return a != nil && a.apiKey != ""
}

func (a *JobAssistant) Ask(ctx context.Context, job model.Job, question string) (string, error) {
	if !a.Enabled() {
		return "", ErrDisabled
	}
	question = CleanQuestion(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	rid := reqctx.RID(ctx)
	jobID := reqctx.JobID(ctx)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  a.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Printf("[assistant] rid=%s job=%s stage=client_init err=%v", rid, jobID, err)
		return "", err
	}

	parts := []*genai.Part{
		genai.NewPartFromText(BuildJobPrompt(job)),
		genai.NewPartFromText("Question: " + question),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	temp := float32(0.4)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   512,
	}

	start := time.Now()
	log.Printf("[assistant] rid=%s job=%s stage=gemini_start model=%s", rid, jobID, a.model)
	res, err := client.Models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		log.Printf("[assistant] rid=%s job=%s stage=gemini_fail model=%s err=%v", rid, jobID, a.model, err)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	answer := strings.TrimSpace(res.Text())
	log.Printf("[assistant] rid=%s job=%s stage=gemini_done len=%d genMs=%d", rid, jobID, len(answer), time.Since(start).Milliseconds())
	if answer == "" {
		answer = fallbackAnswer
	}
	return answer, nil
}
