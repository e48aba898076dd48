package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/container"
	"github.com/oksasatya/go-task-manager/internal/infrastructure/search"
	"github.com/oksasatya/go-task-manager/internal/router"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
	"github.com/oksasatya/go-task-manager/pkg/mailer"
	mailtpl "github.com/oksasatya/go-task-manager/pkg/mailer/templates"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)

	ctx := context.Background()
	c, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("startup failed: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(c),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		helpers.LogInfo(logger, "server starting", logrus.Fields{"port": cfg.Port, "store": cfg.StoreDriver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	c.Close(ctxShutdown)
	logger.Info("server exited properly")
}

// build connects the store and every optional side channel. Optional
// components that fail to start are logged and left disabled.
func build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*container.Container, error) {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	closers := []func(context.Context){st.close}
	var opts container.Options

	if cfg.RedisAddr != "" {
		rdb, err := helpers.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			helpers.LogWarn(logger, "redis unavailable; rate limiting disabled", err, logrus.Fields{"addr": cfg.RedisAddr})
		} else {
			opts.Redis = rdb
			closers = append(closers, func(context.Context) { _ = rdb.Close() })
		}
	}

	if cfg.GCSBucket != "" {
		gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			helpers.LogWarn(logger, "gcs unavailable; avatar mirror disabled", err, logrus.Fields{"bucket": cfg.GCSBucket})
		} else {
			opts.Mirror = helpers.NewGCSAvatarMirror(gcs, cfg.GCSBucket)
			closers = append(closers, func(context.Context) { _ = gcs.Close() })
		}
	}

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		if idx, err := openTaskIndex(ctx, cfg, addrs); err != nil {
			helpers.LogWarn(logger, "elasticsearch unavailable; task search disabled", err, logrus.Fields{"index": cfg.ESTasksIndex})
		} else {
			opts.Index = idx
		}
	}

	notifier, closeNotifier := buildNotifier(cfg, logger)
	opts.Notifier = notifier
	closers = append(closers, closeNotifier)

	c := container.New(cfg, logger, st.users, st.tasks, opts)
	for _, fn := range closers {
		c.OnClose(fn)
	}
	return c, nil
}

func openTaskIndex(ctx context.Context, cfg *config.Config, addrs []string) (*search.TaskIndex, error) {
	es, err := search.NewClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		return nil, err
	}
	idx := search.NewTaskIndex(es, cfg.ESTasksIndex)
	if err := idx.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// buildNotifier picks how account emails leave the process:
// disabled (log only), direct via Mailgun, or queued on RabbitMQ.
func buildNotifier(cfg *config.Config, logger *logrus.Logger) (application.Notifier, func(context.Context)) {
	noop := func(context.Context) {}
	brand := mailtpl.Branding{
		AppName:     cfg.AppName,
		CompanyName: cfg.CompanyName,
		LogoURL:     cfg.LogoURL,
		SupportURL:  cfg.SupportURL,
	}
	if !cfg.MailSendEnabled {
		logger.Info("email sending disabled")
		return mailer.NewLogNotifier(logger), noop
	}
	if cfg.MailDelivery == config.MailDeliveryDirect {
		if !cfg.MailgunConfigured() {
			logger.Warn("mailgun not configured; emails will be logged only")
			return mailer.NewLogNotifier(logger), noop
		}
		return mailer.NewDirectNotifier(mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), brand), noop
	}
	pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		helpers.LogWarn(logger, "rabbitmq unavailable; emails will be logged only", err, nil)
		return mailer.NewLogNotifier(logger), noop
	}
	return mailer.NewQueueNotifier(pub, brand), func(context.Context) { pub.Close() }
}
