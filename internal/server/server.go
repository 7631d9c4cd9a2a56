package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/zaposlitev-backend/internal/handler"
	appmw "github.com/shinyyama/zaposlitev-backend/internal/middleware"
	"github.com/shinyyama/zaposlitev-backend/internal/reqctx"
	"github.com/shinyyama/zaposlitev-backend/internal/service"
)

// Deps are the collaborators the HTTP layer needs. Users and Assistant may be
// nil; the corresponding routes then report the feature as unavailable.
type Deps struct {
	Jobs         service.JobService
	Messaging    service.MessagingService
	Applications service.ApplicationService
	Rates        handler.RatesSource
	Assistant    handler.Assistant
	Users        handler.UserLookup
	Auth         *appmw.AuthMiddleware
	SHA          string
	BuildTime    string
}

// accessLogFormat is echo's default JSON line with the path in place of the
// full uri, so websocket ?token= values stay out of the log.
const accessLogFormat = `{"time":"${time_rfc3339_nano}","id":"${id}","remote_ip":"${remote_ip}",` +
	`"host":"${host}","method":"${method}","path":"${path}","user_agent":"${user_agent}",` +
	`"status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}"` +
	`,"bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n"

type Server struct {
	e *echo.Echo
}

// allowedHostSuffixes are hosting domains whose subdomains may call the API
// with credentials.
var allowedHostSuffixes = []string{"vercel.app", "web.app", "firebaseapp.com"}

func allowOrigin(origin string) (bool, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return false, nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, nil
	}
	if u.User != nil || u.Path != "" || u.RawQuery != "" {
		return false, nil
	}
	host := strings.ToLower(u.Hostname())
	if host == "localhost" || host == "127.0.0.1" {
		return true, nil
	}
	for _, suffix := range allowedHostSuffixes {
		if strings.HasSuffix(host, "."+suffix) {
			return true, nil
		}
	}
	return false, nil
}

// requestContext copies echo's request id into the request context so
// service logs can carry it.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		if rid != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(reqctx.WithRID(req.Context(), rid)))
		}
		return next(c)
	}
}

func New(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestContext)
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{Format: accessLogFormat}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin,
	}))

	jobHandler := handler.NewJobHandler(d.Jobs, d.Applications)
	convHandler := handler.NewConversationHandler(d.Messaging)
	streamHandler := handler.NewStreamHandler(d.Messaging)
	aiHandler := handler.NewAIHandler(d.Jobs, d.Assistant)
	ratesHandler := handler.NewRatesHandler(d.Rates)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    d.SHA,
			"build_time": d.BuildTime,
		})
	})

	api := e.Group("/api")
	api.GET("/jobs", jobHandler.List)
	api.GET("/jobs/:id", jobHandler.Get)
	api.GET("/rates", ratesHandler.Get)

	var auth []echo.MiddlewareFunc
	if d.Auth != nil {
		auth = append(auth, d.Auth.RequireAuth)
	}
	api.POST("/jobs", jobHandler.Create, auth...)
	api.PUT("/jobs/:id", jobHandler.Update, auth...)
	api.DELETE("/jobs/:id", jobHandler.Delete, auth...)
	api.GET("/me/jobs", jobHandler.ListMine, auth...)
	api.POST("/jobs/:id/apply", jobHandler.Apply, auth...)
	api.POST("/jobs/:id/ask", aiHandler.AskJob, auth...)
	api.GET("/conversations", convHandler.List, auth...)
	api.GET("/conversations/:id", convHandler.Get, auth...)
	api.GET("/conversations/:id/messages", convHandler.ListMessages, auth...)
	api.POST("/conversations/:id/messages", convHandler.SendMessage, auth...)
	api.POST("/conversations/:id/read", convHandler.MarkRead, auth...)
	api.GET("/ws/inbox", streamHandler.Inbox, auth...)
	api.GET("/ws/conversations/:id", streamHandler.Conversation, auth...)
	if d.Users != nil {
		api.GET("/users/:uid/public", handler.NewUserHandler(d.Users).GetPublic)
	}

	return &Server{e: e}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
