package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/joho/godotenv"
	"github.com/shinyyama/zaposlitev-backend/internal/ai"
	"github.com/shinyyama/zaposlitev-backend/internal/config"
	"github.com/shinyyama/zaposlitev-backend/internal/currency"
	"github.com/shinyyama/zaposlitev-backend/internal/firebaseapp"
	"github.com/shinyyama/zaposlitev-backend/internal/handler"
	appmw "github.com/shinyyama/zaposlitev-backend/internal/middleware"
	"github.com/shinyyama/zaposlitev-backend/internal/repository"
	"github.com/shinyyama/zaposlitev-backend/internal/server"
	"github.com/shinyyama/zaposlitev-backend/internal/service"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var app *firebase.App
	if cfg.FirebaseProjectID != "" {
		app, err = firebaseapp.New(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			return err
		}
	}

	stores, err := repository.Open(ctx, cfg, app)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Printf("store close error: %v", err)
		}
	}()

	var cache currency.Cache = currency.NewMemoryCache(nil)
	if cfg.RedisURL != "" {
		rc, err := currency.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()
		cache = rc
	}
	converter := currency.NewConverter(cache, currency.NewHTTPProvider(cfg.ExchangeRateURL), cfg.ExchangeRateTTL, nil)

	messaging := service.NewMessagingService(stores.Conversations, stores.Messages, nil)
	deps := server.Deps{
		Jobs:         service.NewJobService(stores.Jobs, converter, nil),
		Messaging:    messaging,
		Applications: service.NewApplicationService(stores.Jobs, messaging),
		Rates:        converter,
		Assistant:    ai.NewJobAssistant(cfg.GeminiAPIKey, cfg.GeminiModel),
		SHA:          cfg.GitSHA,
		BuildTime:    cfg.BuildTime,
	}
	if app != nil {
		authMw, err := appmw.NewAuthMiddleware(ctx, app)
		if err != nil {
			return err
		}
		deps.Auth = authMw
		deps.Users = handler.UserLookup(authMw.Client())
	} else {
		log.Printf("FIREBASE_PROJECT_ID is not set; authenticated routes will reject every request")
	}

	srv := server.New(deps)
	addr := ":" + cfg.Port

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting server on %s", addr)
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
