package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"proctorfeed/internal/config"
	"proctorfeed/internal/logger"
	"proctorfeed/internal/render"
	"proctorfeed/internal/repository/sqlite"
	"proctorfeed/internal/route"
	"proctorfeed/internal/service"
	"proctorfeed/internal/service/cache"
	"proctorfeed/internal/service/camera"
	"proctorfeed/internal/service/channel"
	"proctorfeed/internal/service/history"
	"proctorfeed/internal/service/hub"
	"proctorfeed/internal/service/storage"
)

// Options tune a single run of the agent.
type Options struct {
	// Device starts capture immediately when non-empty.
	Device    string
	StaticDir string
	// StatusInterval prints the console status line; zero disables it.
	StatusInterval time.Duration
}

type App struct {
	config        *config.Config
	logger        *logger.Logger
	db            *sqlite.DB
	bufferService *storage.BufferService
	hubService    *hub.HubService
	manager       *service.Manager
}

// NewApp builds every service from the configuration.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.CacheDatabase), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := sqlite.New(cfg.CacheDatabase)
	if err != nil {
		return nil, err
	}

	store := cache.New(cfg.CacheNamespace,
		sqlite.NewNotificationRepository(db),
		sqlite.NewTimelineRepository(db),
		sqlite.NewSeenRepository(db),
		sqlite.NewStateRepository(db))

	buffer := storage.NewBufferService(cfg, log, func(jpeg []byte) ([]byte, error) {
		return camera.Annotate(jpeg, render.LabelCheating)
	})
	viewers := hub.NewHubService(log)
	opener := camera.NewOpener(cfg.FrameWidth, cfg.FrameHeight, log)

	mng := service.NewManager(cfg, log, service.Dependencies{
		Opener:  opener,
		Probe:   opener.Probe,
		History: history.NewClient(cfg, nil),
		Store:   store,
		Archive: buffer,
		Hub:     viewers,
		NewChannel: func(sink channel.Sink, onConnect func()) service.Channel {
			return channel.New(cfg.SocketURL(), sink, log, channel.Options{
				ReconnectDelay:    cfg.ReconnectDelay,
				MaxReconnectDelay: cfg.MaxReconnectDelay,
				OnConnect:         onConnect,
			})
		},
		Fallback: camera.BlackFrame,
	})

	return &App{
		config:        cfg,
		logger:        log,
		db:            db,
		bufferService: buffer,
		hubService:    viewers,
		manager:       mng,
	}, nil
}

// Manager exposes the service manager.
func (a *App) Manager() *service.Manager {
	return a.manager
}

// Run serves the dashboard until ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context, opts Options) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	var wg sync.WaitGroup
	background := func(f func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f(ctx)
		}()
	}

	background(a.hubService.Run)
	background(a.bufferService.Run)
	background(a.manager.Run)

	restoreCtx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	_ = a.manager.Restore(restoreCtx)
	cancel()

	if opts.Device != "" {
		if _, err := a.manager.Start(ctx, opts.Device); err != nil {
			a.logger.Error("Capture not started: %v", err)
		}
	}
	if opts.StatusInterval > 0 {
		background(func(ctx context.Context) { a.printStatus(ctx, opts.StatusInterval) })
	}

	router := route.SetupRoutes(a.manager, a.hubService, a.logger, opts.StaticDir)
	server := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", a.config.DashboardPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("🚀 Proctor agent\n")
	fmt.Printf("📍 Dashboard: http://localhost:%d\n", a.config.DashboardPort)
	fmt.Printf("🛰  Server: %s\n", a.config.ServerURL)
	fmt.Printf("📁 Snapshots: %s\n", a.config.SnapshotDirectory)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warning("Dashboard shutdown: %v", err)
	}

	a.manager.Close()
	stop()
	wg.Wait()
	if err := a.db.Close(); err != nil {
		a.logger.Warning("Closing cache: %v", err)
	}
	return runErr
}

func (a *App) printStatus(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			line := render.StatusLine(a.manager.Status())
			if line != last {
				fmt.Println(line)
				last = line
			}
		}
	}
}
