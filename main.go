package main

import (
	"CineVault/config"
	"CineVault/internal/downloader"
	"CineVault/internal/handler"
	"CineVault/internal/mq"
	"CineVault/internal/repo"
	"CineVault/internal/security"
	"CineVault/internal/service"
	"CineVault/internal/storage"
	"CineVault/router"
	"CineVault/utils"
	"context"
	"log"
	"time"
)

// main initializes services and starts the HTTP server.
func main() {
	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitMinio()
	utils.InitCacheManager()

	ctx := context.Background()
	if err := repo.EnableKeyspaceNotifications(ctx); err != nil {
		log.Printf("enable redis keyspace notifications failed: %v", err)
	} else {
		ready := make(chan struct{})
		go repo.ListenRedisExpired(ctx, repo.Redis, ready)
		<-ready
	}

	taskStore := downloader.NewGormTaskStore(repo.Db)
	manager := downloader.NewManager(downloader.ManagerOptions{
		MaxConcurrent: config.AppConfig.MaxConcurrentDownloads,
		Transfer:      downloader.NewHTTPTransfer(storage.Default, config.AppConfig.BucketName),
		Store:         taskStore,
		Monitor:       downloader.NewHostMonitor("/"),
		Publish:       mq.EmitEvent,
	})
	if err := manager.Restore(ctx); err != nil {
		log.Printf("restore download tasks failed: %v", err)
	}

	scheduler := downloader.NewScheduler(downloader.SchedulerOptions{
		Manager:  manager,
		Resolver: service.CatalogResolver{},
		Store:    downloader.NewGormScheduleStore(repo.Db),
		Interval: config.AppConfig.ScheduleScanInterval,
		Spacing:  config.AppConfig.ScheduleSpacing,
		Publish:  mq.EmitEvent,
	})
	if err := scheduler.Restore(ctx); err != nil {
		log.Printf("restore schedules failed: %v", err)
	}
	go scheduler.Run(ctx)

	aggregator := security.NewAggregator(security.AggregatorOptions{
		Store: security.NewGormAuditStore(repo.Db),
		UserName: func(ctx context.Context, id uint64) string {
			name, err := service.FindUserNameById(id)
			if err != nil {
				return ""
			}
			return name
		},
		LockedAccounts: func(ctx context.Context, now time.Time) (int64, error) {
			return service.CountLockedAccounts(now)
		},
		StorageUsage: service.StorageUsagePercent,
		Probes: []security.HealthProbe{
			security.DatabaseProbe{DB: repo.Db},
			security.CacheProbe{Client: repo.Redis},
			security.StorageProbe{Probe: func(ctx context.Context) error {
				_, err := storage.Default.UsedBytes(ctx, config.AppConfig.BucketName)
				return err
			}},
		},
		FailedLoginThreshold: config.AppConfig.FailedLoginAlertThreshold,
		FailedLoginWindow:    config.AppConfig.FailedLoginWindow,
		HealthDegradedBelow:  config.AppConfig.HealthDegradedBelow,
		StorageAlertAbove:    config.AppConfig.StorageAlertPercent,
		PageSize:             config.AppConfig.AuditPageSize,
	})

	handler.Init(manager, scheduler, downloader.NewAnalytics(taskStore), aggregator)

	r := router.InitRouter()
	r.Run(":8000")
}
