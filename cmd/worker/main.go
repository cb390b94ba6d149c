package main

import (
	"CineVault/config"
	"CineVault/internal/repo"
	"CineVault/internal/security"
	"CineVault/internal/worker"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	config.InitConfig()
	repo.InitMysql()

	aggregator := security.NewAggregator(security.AggregatorOptions{
		Store:    security.NewGormAuditStore(repo.Db),
		PageSize: config.AppConfig.AuditPageSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("audit worker started")
	if err := worker.RunAuditWorker(ctx, aggregator); err != nil {
		log.Fatalf("audit worker stopped: %v", err)
	}
}
