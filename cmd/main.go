package main

import (
	"backend/config"
	"backend/controllers"
	"backend/routes"
	"backend/services"

	"go.uber.org/zap"
)

func main() {
	log := config.InitLogger()
	defer log.Sync()

	cfg := config.Load(log)

	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}

	var blobs services.BlobStore
	if cfg.RedisAddr != "" {
		blobs = services.NewRedisBlobStore(config.InitRedis(cfg, log))
	} else {
		blobs = services.NewMemoryBlobStore()
	}
	cache := services.NewMealCache(blobs)

	hub := services.NewRealtimeHub()

	var push *services.PushService
	if cfg.PushEnabled {
		push, err = services.NewPushService(cfg, db, log)
		if err != nil {
			log.Warn("push disabled", zap.Error(err))
			push = nil
		}
	}
	alerts := services.NewAlertBus(db, hub, push, log)

	mealStore := services.NewGormMealStore(db)
	subStore := services.NewGormSubscriptionStore(db)
	sessions := services.NewSessionManager(mealStore, cache, hub, log)

	billing := services.NewRevenueCatClient(cfg)
	subs := services.NewSubscriptionService(billing, subStore, alerts, log)

	authSvc := services.NewAuthService(db)
	goalSvc := services.NewDailyGoalService(db)

	sched := services.NewScheduler(sessions, subs, log)
	if err := sched.Start(); err != nil {
		log.Fatal("scheduler start failed", zap.Error(err))
	}
	defer sched.Stop()

	r := routes.SetupRouter(routes.Deps{
		DB:           db,
		Auth:         controllers.NewAuthController(authSvc, sessions),
		Users:        controllers.NewUserController(authSvc, db),
		Meals:        controllers.NewMealController(sessions),
		History:      controllers.NewHistoryController(sessions),
		Goals:        controllers.NewGoalController(goalSvc, sessions),
		Subscription: controllers.NewSubscriptionController(subs),
		Realtime:     controllers.NewRealtimeController(hub, sessions),
		Devices:      controllers.NewDeviceController(push, db),
	})

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
