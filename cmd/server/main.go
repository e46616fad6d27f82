package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zuma-group/bill-integration-platform/internal/cache"
	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/email/noop"
	"github.com/zuma-group/bill-integration-platform/internal/email/ses"
	"github.com/zuma-group/bill-integration-platform/internal/gmail"
	"github.com/zuma-group/bill-integration-platform/internal/handler"
	"github.com/zuma-group/bill-integration-platform/internal/linksign"
	"github.com/zuma-group/bill-integration-platform/internal/logger"
	"github.com/zuma-group/bill-integration-platform/internal/middleware"
	"github.com/zuma-group/bill-integration-platform/internal/odoo"
	"github.com/zuma-group/bill-integration-platform/internal/parser"
	_ "github.com/zuma-group/bill-integration-platform/internal/parser/gemini"
	"github.com/zuma-group/bill-integration-platform/internal/pdfsplit"
	"github.com/zuma-group/bill-integration-platform/internal/port"
	"github.com/zuma-group/bill-integration-platform/internal/queue"
	"github.com/zuma-group/bill-integration-platform/internal/repository/postgres"
	"github.com/zuma-group/bill-integration-platform/internal/router"
	"github.com/zuma-group/bill-integration-platform/internal/service"
	s3storage "github.com/zuma-group/bill-integration-platform/internal/storage/s3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Setup(cfg.Log); err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	invoiceRepo := postgres.NewInvoiceRepo(db)

	// Initialize storage; the attachment cache alone serves links when no bucket is set.
	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	} else {
		log.Warn().Msg("S3 bucket not configured, attachments are served from memory only")
	}
	attachmentCache := cache.NewAttachmentCache(cfg.Attachments.CacheTTL, cache.SystemClock)
	signer := linksign.NewSigner(cfg.Attachments.SigningSecret, cfg.Attachments.LinkTTL)

	extractor, err := parser.NewFromConfig(&cfg.Parser)
	if err != nil {
		return fmt.Errorf("failed to initialize OCR provider: %w", err)
	}

	notifier, err := newNotifier(cfg.Email)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}

	var mailbox port.Mailbox
	if cfg.Gmail.Enabled {
		client, err := gmail.NewClient(ctx, cfg.Gmail)
		if err != nil {
			return fmt.Errorf("failed to initialize gmail client: %w", err)
		}
		mailbox = client
	}

	// Initialize services
	pending := queue.NewPending()
	attachmentSvc := service.NewAttachmentService(storage, attachmentCache, signer, &cfg.S3, &cfg.Attachments)
	extractionSvc := service.NewExtractionService(extractor, attachmentSvc, &cfg.S3)
	syncSvc := service.NewSyncService(
		pdfsplit.NewSplitter(cfg.Odoo.SplitConcurrency),
		attachmentSvc,
		odoo.NewBuilder(cfg.Odoo.PayloadFormat, cfg.Odoo.DefaultCurrency, cfg.Odoo.DefaultPaymentTerms),
		odoo.NewClient(cfg.Odoo),
		invoiceRepo,
		notifier,
		cfg.Odoo.SplitConcurrency,
	)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, cfg.Odoo.DefaultCurrency)
	gmailSvc := service.NewGmailService(mailbox, extractionSvc, pending, nil, cfg.Gmail)

	// Initialize handlers
	ocrLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.OCRPerSecond, cfg.RateLimit.OCRBurst)
	r := router.Setup(router.Handlers{
		Health:     handler.NewHealthHandler(db),
		OCR:        handler.NewOCRHandler(extractionSvc),
		Sync:       handler.NewSyncHandler(syncSvc),
		Invoice:    handler.NewInvoiceHandler(invoiceSvc, pending, cfg.Queue),
		Attachment: handler.NewAttachmentHandler(attachmentSvc),
		Gmail:      handler.NewGmailHandler(gmailSvc, gmail.NewConsent(cfg.Gmail)),
	}, cfg.CORS.AllowedOrigins, ocrLimiter)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Server.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		attachmentCache.RunJanitor(gctx, cfg.Attachments.JanitorInterval)
		return nil
	})
	g.Go(func() error {
		interval := time.Duration(cfg.Gmail.PollIntervalSecs) * time.Second
		service.NewGmailPollWorker(gmailSvc, interval, cfg.Gmail.MaxPerPoll).Start(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newNotifier(cfg config.EmailConfig) (port.Notifier, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ses":
		return ses.NewSESSender(cfg)
	case "", "noop":
		return noop.NewNoopSender(), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
