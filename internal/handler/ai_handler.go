package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/zaposlitev-backend/internal/ai"
	appmw "github.com/shinyyama/zaposlitev-backend/internal/middleware"
	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"github.com/shinyyama/zaposlitev-backend/internal/reqctx"
	"github.com/shinyyama/zaposlitev-backend/internal/service"
)

// Assistant answers questions about a posting.
type Assistant interface {
	Enabled() bool
	Ask(ctx context.Context, job model.Job, question string) (string, error)
}

type AIHandler struct {
	jobs      service.JobService
	assistant Assistant
}

func NewAIHandler(jobs service.JobService, assistant Assistant) *AIHandler {
	return &AIHandler{jobs: jobs, assistant: assistant}
}

type AskRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

func (h *AIHandler) AskJob(c echo.Context) error {
	if h.assistant == nil || !h.assistant.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("assistant_disabled", "GEMINI_API_KEY is not set"))
	}
	uid := appmw.UID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req AskRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	id := c.Param("id")
	ctx := reqctx.WithJobID(c.Request().Context(), id)
	job, err := h.jobs.Get(ctx, id)
	if err != nil {
		return writeError(c, err, "job")
	}
	if job.PostedBy == uid {
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "cannot ask about own job"))
	}
	answer, err := h.assistant.Ask(ctx, *job, req.Question)
	if err != nil {
		if errors.Is(err, ai.ErrEmptyQuestion) {
			return badRequest(c, err.Error())
		}
		return c.JSON(http.StatusBadGateway, NewErrorResponse("upstream_error", "failed to call gemini"))
	}
	return c.JSON(http.StatusOK, map[string]string{"answer": answer})
}
