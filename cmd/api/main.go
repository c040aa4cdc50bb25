package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"lead-dialer/internal/audit"
	"lead-dialer/internal/auth"
	"lead-dialer/internal/calls"
	"lead-dialer/internal/config"
	"lead-dialer/internal/leads"
	"lead-dialer/internal/mailbox"
	"lead-dialer/internal/qualify"
	"lead-dialer/internal/routing"
	"lead-dialer/internal/telephony"
	"lead-dialer/pkg/logger"
	"lead-dialer/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)
	logEnvironment(log, cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	checks := map[string]func(context.Context) error{}

	// Audit log: Postgres when configured, bounded memory otherwise.
	var auditRepo audit.Repository
	if cfg.DB.URL != "" {
		db, err := utils.OpenPostgres(rootCtx, cfg.DB.URL, utils.PoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := audit.Migrate(rootCtx, db); err != nil {
			log.Error("audit migration failed", "err", err)
			os.Exit(1)
		}
		auditRepo = audit.NewPostgresRepo(db)
		checks["postgres"] = postgresCheck(db)
	} else {
		mem := audit.NewMemoryRepo()
		mem.Limit = 1000
		auditRepo = mem
	}
	auditSvc := audit.NewService(auditRepo, log)

	twilioClient := telephony.NewTwilioClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)
	retellClient := telephony.NewRetellClient(telephony.RetellConfig{APIKey: cfg.Retell.APIKey, BaseURL: cfg.Retell.BaseURL})
	for _, p := range []telephony.Provider{twilioClient, retellClient} {
		log.Info("provider", "name", p.Name(), "configured", p.Configured())
	}

	router := routing.NewEngine(routing.DefaultBusinessHours(cfg.Routing.Location), cfg.Agents.PrimaryPhone, cfg.Agents.BackupPhone)
	opts := calls.Options{
		VoiceAgentID:  cfg.Retell.AgentID,
		SourceNumber:  cfg.Twilio.PhoneNumber,
		BaseURL:       cfg.App.BaseURL,
		Router:        router,
		MissedCallSMS: cfg.Routing.MissedCallSMS,
		Audit:         auditSvc,
		Logger:        log,
	}
	// Unconfigured providers stay nil so the orchestrator reports a configuration error.
	if twilioClient.Configured() {
		opts.Dispatcher = twilioClient
		opts.Messenger = twilioClient
	}
	if retellClient.Configured() {
		opts.VoiceAgent = retellClient
	}

	// Retries go through Redis when configured so they survive a restart.
	var worker *calls.RetryWorker
	var redisOpt *redis.Options
	if cfg.Redis.URL != "" {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{URL: cfg.Redis.URL})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

		redisOpt = rdb.Options()
		queue := calls.NewQueueScheduler(calls.RedisConnOpt(redisOpt), cfg.Redis.Queue)
		defer queue.Close()
		opts.Retry = queue
	}

	orch := calls.New(opts)
	if err := orch.Start(rootCtx); err != nil {
		log.Error("orchestrator start failed", "err", err)
		os.Exit(1)
	}
	defer orch.Close()

	if redisOpt != nil {
		worker = calls.NewRetryWorker(calls.RedisConnOpt(redisOpt), cfg.Redis.Queue, orch, log)
	}

	var authManager *auth.Manager
	if cfg.Auth.JWTSecret != "" {
		authManager, err = auth.NewManager(cfg.Auth)
		if err != nil {
			log.Error("auth init failed", "err", err)
			os.Exit(1)
		}
	} else {
		log.Warn("JWT_SECRET not set, /test-call is unauthenticated")
	}

	qualifier := qualify.NewOpenRouterQualifier(qualify.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Region:  cfg.LLM.Region,
	}, log)
	pipeline := leads.NewPipeline(qualifier, orch, log)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, routeDeps{
		Orchestrator: orch,
		Auth:         authManager,
		BaseURL:      cfg.App.BaseURL,
		Checks:       checks,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.MailboxEnabled() {
		watcher := mailbox.NewWatcher(mailbox.Config{
			Host:         cfg.Email.Host,
			Port:         cfg.Email.Port,
			User:         cfg.Email.User,
			Password:     cfg.Email.Password,
			Folder:       cfg.Email.Folder,
			PollInterval: cfg.Email.PollInterval,
		}, nil, pipeline.HandleMessage, log)
		g.Go(func() error { return watcher.Run(ctx) })
	}
	if worker != nil {
		g.Go(func() error { return worker.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		log.Error("service stopped with error", "err", err)
	}
}

func logEnvironment(log *slog.Logger, cfg config.Config) {
	log.Info("environment",
		"env", cfg.App.Env,
		"port", cfg.App.Port,
		"base_url", cfg.App.BaseURL,
		"email_host", cfg.Email.Host,
		"email_user", cfg.Email.User,
		"email_password", logger.Mask(cfg.Email.Password),
		"twilio_auth_token", logger.Mask(cfg.Twilio.AuthToken),
		"retell_api_key", logger.Mask(cfg.Retell.APIKey),
		"openrouter_api_key", logger.Mask(cfg.LLM.APIKey),
		"business_timezone", cfg.Routing.Location.String(),
	)
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}
}

func postgresCheck(db *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		return utils.Ping(ctx, db, 2*time.Second)
	}
}
