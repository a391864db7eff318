package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-catalog/catalog/config"
	"github.com/Astemirdum/library-catalog/catalog/internal/handler"
	"github.com/Astemirdum/library-catalog/catalog/internal/repository"
	"github.com/Astemirdum/library-catalog/catalog/internal/server"
	"github.com/Astemirdum/library-catalog/catalog/internal/service"
	"github.com/Astemirdum/library-catalog/catalog/internal/service/rating"
	"github.com/Astemirdum/library-catalog/catalog/internal/session"
	"github.com/Astemirdum/library-catalog/catalog/migrations"
	"github.com/Astemirdum/library-catalog/pkg/kafka"
	"github.com/Astemirdum/library-catalog/pkg/logger"
	"github.com/Astemirdum/library-catalog/pkg/postgres"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "catalog")
	defer func() { _ = log.Sync() }()

	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}
	defer db.Close()

	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo %v", err)
	}

	sessions, rdb, err := newSessionStore(cfg.Session)
	if err != nil {
		return fmt.Errorf("session store %v", err)
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		log.Info("session store: redis", zap.String("addr", cfg.Session.RedisAddr))
	} else {
		log.Info("session store: in-memory")
	}

	var producer sarama.SyncProducer
	if cfg.Kafka.Enabled() {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka.NewProducer %v", err)
		}
		defer func() { _ = producer.Close() }()
	}

	ratingSvc := rating.NewService(log, cfg.Goodreads)
	catalogSvc := service.NewService(repo, ratingSvc, log)
	identity := service.NewIdentity(repo, sessions, log)

	h := handler.New(catalogSvc, identity, handler.NewEnqueuer(producer), cfg.Session, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	gg, gctx := errgroup.WithContext(ctx)
	gg.Go(func() error {
		if err := srv.Run(); err != nil {
			return fmt.Errorf("server run: %w", err)
		}
		return nil
	})
	gg.Go(func() error {
		<-gctx.Done()
		log.Debug("Graceful shutdown", zap.Error(context.Cause(gctx)))

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := srv.Stop(closeCtx); err != nil {
			log.Error("srv.Stop", zap.Error(err))
		}
		return nil
	})
	if err := gg.Wait(); err != nil {
		return err
	}
	log.Info("Graceful shutdown finished")
	return nil
}

// newSessionStore returns a Redis backed store when an address is configured.
func newSessionStore(cfg config.Session) (session.Store, *redis.Client, error) {
	if cfg.RedisAddr == "" {
		return session.NewMemoryStore(cfg.TTL), nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(rdb, cfg.TTL), rdb, nil
}
