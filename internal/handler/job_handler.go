package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/zaposlitev-backend/internal/currency"
	appmw "github.com/shinyyama/zaposlitev-backend/internal/middleware"
	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"github.com/shinyyama/zaposlitev-backend/internal/service"
)

type JobHandler struct {
	svc  service.JobService
	apps service.ApplicationService
}

func NewJobHandler(svc service.JobService, apps service.ApplicationService) *JobHandler {
	return &JobHandler{svc: svc, apps: apps}
}

type JobResponse struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Company          string  `json:"company"`
	Location         string  `json:"location"`
	JobType          string  `json:"jobType"`
	Description      string  `json:"description"`
	Requirements     string  `json:"requirements,omitempty"`
	Salary           float64 `json:"salary"`
	SalaryDisplay    string  `json:"salaryDisplay"`
	OriginalSalary   float64 `json:"originalSalary,omitempty"`
	OriginalCurrency string  `json:"originalCurrency,omitempty"`
	PostedBy         string  `json:"postedBy"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

type JobListResponse struct {
	Jobs       []JobResponse `json:"jobs"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PerPage    int           `json:"perPage"`
	TotalPages int           `json:"totalPages"`
}

type JobRequest struct {
	Title        string  `json:"title" validate:"required,max=120"`
	Company      string  `json:"company" validate:"required"`
	Location     string  `json:"location" validate:"required"`
	JobType      string  `json:"jobType" validate:"omitempty,oneof=full-time part-time freelance contract internship temporary"`
	Description  string  `json:"description" validate:"required"`
	Requirements string  `json:"requirements"`
	Salary       float64 `json:"salary" validate:"gte=0"`
	Currency     string  `json:"currency" validate:"omitempty,len=3"`
}

type ApplyRequest struct {
	Message string `json:"message" validate:"max=5000"`
}

func (r JobRequest) input() service.JobInput {
	return service.JobInput{
		Title:        r.Title,
		Company:      r.Company,
		Location:     r.Location,
		JobType:      r.JobType,
		Description:  r.Description,
		Requirements: r.Requirements,
		Salary:       r.Salary,
		Currency:     r.Currency,
	}
}

func toJobResponse(j *model.Job) JobResponse {
	return JobResponse{
		ID:               j.ID,
		Title:            j.Title,
		Company:          j.Company,
		Location:         j.Location,
		JobType:          j.JobType,
		Description:      j.Description,
		Requirements:     j.Requirements,
		Salary:           j.Salary,
		SalaryDisplay:    currency.FormatCurrency(j.Salary, "USD"),
		OriginalSalary:   j.OriginalSalary,
		OriginalCurrency: j.OriginalCurrency,
		PostedBy:         j.PostedBy,
		CreatedAt:        j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        j.UpdatedAt.Format(time.RFC3339),
	}
}

func toJobListResponse(p service.JobPage) JobListResponse {
	resp := JobListResponse{
		Jobs:       make([]JobResponse, 0, len(p.Jobs)),
		Total:      p.Total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: p.TotalPages,
	}
	for i := range p.Jobs {
		resp.Jobs = append(resp.Jobs, toJobResponse(&p.Jobs[i]))
	}
	return resp
}

func (h *JobHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("perPage"))
	f := service.JobFilter{
		Search:      c.QueryParam("search"),
		JobType:     c.QueryParam("jobType"),
		Location:    c.QueryParam("location"),
		SalaryRange: c.QueryParam("salaryRange"),
		PostedBy:    c.QueryParam("postedBy"),
	}
	p, err := h.svc.List(c.Request().Context(), f, page, perPage)
	if err != nil {
		return writeError(c, err, "jobs")
	}
	return c.JSON(http.StatusOK, toJobListResponse(p))
}

func (h *JobHandler) ListMine(c echo.Context) error {
	uid := appmw.UID(c)
	if uid == "" {
		return unauthorized(c)
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	p, err := h.svc.List(c.Request().Context(), service.JobFilter{PostedBy: uid}, page, service.MaxPerPage)
	if err != nil {
		return writeError(c, err, "jobs")
	}
	return c.JSON(http.StatusOK, toJobListResponse(p))
}

func (h *JobHandler) Get(c echo.Context) error {
	job, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err, "job")
	}
	return c.JSON(http.StatusOK, toJobResponse(job))
}

func (h *JobHandler) Create(c echo.Context) error {
	uid := appmw.UID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req JobRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	job, err := h.svc.Create(c.Request().Context(), uid, req.input())
	if err != nil {
		return writeError(c, err, "job")
	}
	return c.JSON(http.StatusCreated, toJobResponse(job))
}

func (h *JobHandler) Update(c echo.Context) error {
	uid := appmw.UID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req JobRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	job, err := h.svc.Update(c.Request().Context(), uid, c.Param("id"), req.input())
	if err != nil {
		return writeError(c, err, "job")
	}
	return c.JSON(http.StatusOK, toJobResponse(job))
}

func (h *JobHandler) Delete(c echo.Context) error {
	uid := appmw.UID(c)
	if uid == "" {
		return unauthorized(c)
	}
	if err := h.svc.Delete(c.Request().Context(), uid, c.Param("id")); err != nil {
		return writeError(c, err, "job")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *JobHandler) Apply(c echo.Context) error {
	uid := appmw.UID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req ApplyRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	app, err := h.apps.Apply(c.Request().Context(), uid, c.Param("id"), req.Message)
	if err != nil {
		return writeError(c, err, "job")
	}
	resp := map[string]interface{}{"conversation": toConversationResponse(*app.Conversation, uid)}
	if app.Message != nil {
		resp["message"] = toMessageResponse(*app.Message)
	}
	return c.JSON(http.StatusCreated, resp)
}
