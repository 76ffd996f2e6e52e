package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do"
	"github.com/serroba/linkkeeper/internal/container"
	"github.com/serroba/linkkeeper/internal/messaging"
	"go.uber.org/zap"
)

func main() {
	opts := &container.Options{
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		LogFormat:  getEnv("LOG_FORMAT", "console"),
		MailSender: getEnv("MAIL_SENDER", "log"),
		MailFrom:   getEnv("MAIL_FROM", "no-reply@localhost"),
		SESRegion:  getEnv("SES_REGION", "us-east-1"),
		SESKeyID:   getEnv("AWS_ACCESS_KEY_ID", ""),
		SESSecret:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)

	group, err := do.Invoke[*messaging.ConsumerGroup](injector)
	if err != nil {
		logger.Fatal("failed to build consumer group", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	logger.Info("mail delivery consumer running", zap.String("sender", opts.MailSender))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	cancel()

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return defaultValue
}
