// Package server initializes and runs the chat server: it opens the
// database, runs migrations, wires the repositories into the services and
// starts the websocket transport and the token sweeper.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/server/admin"
	"github.com/parlor-chat/parlor/internal/server/chat"
	"github.com/parlor-chat/parlor/internal/server/config"
	"github.com/parlor-chat/parlor/internal/server/repositories/repomanager"
	"github.com/parlor-chat/parlor/internal/server/tokens"
	"github.com/parlor-chat/parlor/internal/server/ws"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	hub      *ws.Hub
	tokenSvc *tokens.Service
	chatSvc  *chat.Service
	adminSvc *admin.Service
	sweeper  *tokens.Sweeper
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	users := rm.Users(db)
	tokenRepo := rm.Tokens(db)
	communities := rm.Communities(db)
	messages := rm.Messages(db)
	invites := rm.Invites(db)
	reports := rm.Reports(db)

	hub := ws.NewHub(logger)
	tokenSvc := tokens.NewService(users, tokenRepo, cfg)
	chatSvc := chat.NewService(users, communities, messages, invites, reports, cfg, hub)
	adminSvc := admin.NewService(users, tokenRepo, messages, reports, hub, logger)
	sweeper := tokens.NewSweeper(tokenSvc, cfg.TokensSweepInterval, logger)

	return &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		hub:      hub,
		tokenSvc: tokenSvc,
		chatSvc:  chatSvc,
		adminSvc: adminSvc,
		sweeper:  sweeper,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startWSServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := ws.NewServer(app.config.EndpointAddr, app.hub, app.tokenSvc, app.chatSvc, app.adminSvc, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startWSServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
}
