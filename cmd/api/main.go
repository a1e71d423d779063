package main

import (
	"context"
	"net/http"

	"github.com/newsstandhq/newsstand/pkg/cache"
	"github.com/newsstandhq/newsstand/pkg/config"
	"github.com/newsstandhq/newsstand/pkg/database"
	"github.com/newsstandhq/newsstand/pkg/metrics"
	"github.com/newsstandhq/newsstand/pkg/migrations"
	"github.com/newsstandhq/newsstand/pkg/server"
	"github.com/newsstandhq/newsstand/pkg/version"
	"github.com/newsstandhq/newsstand/pkg/worker"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting newsstand", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	listingCache, err := cache.New(ctx, cfg)
	if err != nil {
		log.Err(err).Fatal("cache error")
	}
	if cfg.RedisAddr == "" {
		log.Info("listing cache disabled")
	} else {
		log.Info("listing cache connected", logger.Data{"addr": cfg.RedisAddr, "ttl": cfg.ListingCacheTTL.String()})
	}

	srv, err := server.New(cfg, db, server.Deps{
		Cache:   listingCache,
		Metrics: metrics.New(),
	})
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	wrkr := worker.New(cfg, db)

	graceful := signals.Setup()

	go func() {
		log.Info("server started", logger.Data{"addr": srv.Addr})
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("worker started", logger.Data{"interval": cfg.SubscriptionSweepInterval.String()})

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	err = listingCache.Close()
	if err != nil {
		log.Err(err).Error("cache close error")
	}

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
