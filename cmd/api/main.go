package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/meshahzad92/Inbound-Calling/internal/agent"
	"github.com/meshahzad92/Inbound-Calling/internal/audit"
	"github.com/meshahzad92/Inbound-Calling/internal/auth"
	"github.com/meshahzad92/Inbound-Calling/internal/config"
	"github.com/meshahzad92/Inbound-Calling/internal/extract"
	"github.com/meshahzad92/Inbound-Calling/internal/httpapi"
	"github.com/meshahzad92/Inbound-Calling/internal/notify"
	"github.com/meshahzad92/Inbound-Calling/internal/reporting"
	"github.com/meshahzad92/Inbound-Calling/internal/telephony"
	"github.com/meshahzad92/Inbound-Calling/internal/transfer"
	"github.com/meshahzad92/Inbound-Calling/pkg/logger"
	"github.com/meshahzad92/Inbound-Calling/pkg/utils"
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

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(auth.ManagerConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.JWTIssuer,
		Audience:   cfg.Auth.JWTAudience,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	control, err := telephony.NewTwilioClient(telephony.TwilioClientConfig{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
	})
	if err != nil {
		log.Error("telephony init failed", "err", err)
		os.Exit(1)
	}

	agentClient, err := agent.NewClient(agent.ClientConfig{APIKey: cfg.Agent.APIKey})
	if err != nil {
		log.Error("agent init failed", "err", err)
		os.Exit(1)
	}

	extractor, err := extract.NewOpenAIExtractor(extract.OpenAIConfig{
		APIKey: cfg.Extract.APIKey,
		Model:  cfg.Extract.Model,
	})
	if err != nil {
		log.Error("extractor init failed", "err", err)
		os.Exit(1)
	}

	smsSender, err := notify.NewTwilioSender(notify.TwilioSenderConfig{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		From:       cfg.Twilio.PhoneNumber,
	})
	if err != nil {
		log.Error("sms init failed", "err", err)
		os.Exit(1)
	}

	// Durable stores are optional locally; memory fallbacks keep local
	// runs dependency-free.
	var (
		outcomes   transfer.OutcomeStore = transfer.NewMemoryStore(cfg.Transfer.OutcomeRetention)
		reportRepo reporting.Repository  = reporting.NewMemoryRepo()
		orchOpts   []transfer.Option
	)

	if cfg.HasPostgres() {
		db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		reportRepo = reporting.NewPostgresRepo(db)
	}

	if cfg.HasRedis() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		redisOutcomes, err := transfer.NewRedisStore(rdb, cfg.Transfer.OutcomeRetention)
		if err != nil {
			log.Error("outcome store init failed", "err", err)
			os.Exit(1)
		}
		outcomes = redisOutcomes
		if cfg.Transfer.DialLimit > 0 {
			limiter := transfer.NewRedisDialLimiter(rdb, cfg.Transfer.DialLimit, cfg.Transfer.BackgroundDeadline+time.Minute)
			orchOpts = append(orchOpts, transfer.WithLimiter(limiter))
		}
	}

	sessions := agent.NewSessionRegistry()
	auditSvc := audit.NewService(audit.NewMemoryRepo())
	orchOpts = append(orchOpts,
		transfer.WithResolver(sessions),
		transfer.WithAudit(auditSvc),
	)

	orchestrator := transfer.NewOrchestrator(control, outcomes, transfer.Config{
		CallerID:           cfg.Twilio.PhoneNumber,
		DefaultDestination: cfg.Transfer.ManagementNumber,
		RingTimeout:        cfg.Transfer.RingTimeout,
		Quick:              transfer.Mode{PollInterval: cfg.Transfer.PollInterval, Deadline: cfg.Transfer.QuickDeadline},
		Background:         transfer.Mode{PollInterval: cfg.Transfer.PollInterval, Deadline: cfg.Transfer.BackgroundDeadline},
		Strategy:           cfg.Transfer.Strategy,
	}, log, orchOpts...)

	reports := reporting.NewService(reportRepo, outcomes, log, reporting.NewCSVSink(cfg.Report.CSVPath))
	monitor := agent.NewMonitor(agentClient, extractor, reports, smsSender, sessions, agent.MonitorConfig{}, log)

	h := httpapi.Handlers{
		Agent:           agentClient,
		Sessions:        sessions,
		Monitor:         monitor,
		Transfers:       orchestrator,
		Outcomes:        outcomes,
		Reports:         reports,
		Auth:            authManager,
		AgentVoice:      cfg.Agent.Voice,
		TransferToolURL: cfg.TransferToolURL(),
		AdminUser:       cfg.Auth.AdminUser,
		AdminPassword:   cfg.Auth.AdminPassword,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
