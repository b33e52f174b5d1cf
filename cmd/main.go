package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kavicki-com/gymapp/internal/alerts"
	"github.com/Kavicki-com/gymapp/internal/auth"
	"github.com/Kavicki-com/gymapp/internal/config"
	"github.com/Kavicki-com/gymapp/internal/db"
	"github.com/Kavicki-com/gymapp/internal/handlers"
	"github.com/Kavicki-com/gymapp/internal/middleware"
	"github.com/Kavicki-com/gymapp/internal/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	cfg.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	client, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoTimeout)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	deps := newDeps(database, authService)
	deps.Health = func(r *http.Request) error {
		pctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		return client.Ping(pctx, nil)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.MQTTBroker != "" {
		publisher, err := alerts.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MongoTimeout)
		if err != nil {
			return fmt.Errorf("connect to MQTT broker: %w", err)
		}
		defer publisher.Close()

		scanner := &alerts.Scanner{
			Equipment: deps.Equipment,
			Clients:   deps.Clients,
			Publisher: publisher,
			TopicRoot: cfg.MQTTTopicRoot,
			Interval:  cfg.ScanInterval,
		}
		g.Go(func() error {
			if err := scanner.Run(gctx); !errors.Is(err, context.Canceled) {
				return fmt.Errorf("alert scanner: %w", err)
			}
			return nil
		})
	} else {
		log.Info("MQTT_BROKER not set, alert publishing disabled")
	}

	srv := newServer(cfg, handlers.NewRouter(deps))
	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

func newDeps(database *mongo.Database, authService *auth.Service) handlers.Deps {
	return handlers.Deps{
		Auth:        authService,
		Users:       &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)},
		Clients:     db.NewStore[models.Client](database.Collection(db.ClientsCollection)),
		Employees:   db.NewStore[models.Employee](database.Collection(db.EmployeesCollection)),
		Equipment:   db.NewStore[models.Equipment](database.Collection(db.EquipmentCollection)),
		Maintenance: db.NewStore[models.MaintenanceRecord](database.Collection(db.MaintenanceCollection)),
		Plans:       db.NewStore[models.Plan](database.Collection(db.PlansCollection)),
		Payments:    db.NewStore[models.Payment](database.Collection(db.PaymentsCollection)),
	}
}

// newServer wraps the API with the ambient middleware chain.
func newServer(cfg config.Config, api http.Handler) *http.Server {
	limiter := middleware.NewRateLimitMiddleware()
	handler := middleware.RequestLogger(
		middleware.CORS(cfg.AllowedOrigins)(
			limiter.RateLimit(cfg.RateLimit, cfg.RateWindow)(api),
		),
	)
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
