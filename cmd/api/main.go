package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/equisoins/clover/config"
	"github.com/equisoins/clover/internal/database"
	"github.com/equisoins/clover/internal/middleware"
	auditrepo "github.com/equisoins/clover/internal/repositories/audit"
	claimrepo "github.com/equisoins/clover/internal/repositories/claim"
	practitionerrepo "github.com/equisoins/clover/internal/repositories/practitioner"
	"github.com/equisoins/clover/internal/startup"
	"github.com/equisoins/clover/internal/tracing"
	"github.com/equisoins/clover/pkg/events"
	"github.com/equisoins/clover/pkg/importer"
	"github.com/equisoins/clover/pkg/kafka"
	"github.com/equisoins/clover/pkg/redis"
	adminroutes "github.com/equisoins/clover/pkg/routes/admin"
	claimroutes "github.com/equisoins/clover/pkg/routes/claim"
	"github.com/equisoins/clover/pkg/routes/health"
	practitionerroutes "github.com/equisoins/clover/pkg/routes/practitioner"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger := newLogger(cfg)

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(&tracing.NoopExporter{}))
	otel.SetTracerProvider(provider)
	tracing.SetTracer(provider.Tracer(cfg.AppName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &application{cfg: cfg, logger: logger}

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&dependency{name: "database", start: app.startDatabase, stop: app.stopDatabase})
	boot.AddDependency(&dependency{name: "redis", start: app.startRedis, stop: app.stopRedis})
	boot.AddDependency(&dependency{name: "kafka", start: app.startKafka, stop: app.stopKafka})
	boot.AddDependency(&dependency{
		name:      "server",
		dependsOn: []string{"database", "redis", "kafka"},
		start:     app.startServer,
		stop:      app.stopServer,
	})

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("failed to start service")
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown finished with errors")
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

// application holds the service's long-lived components between startup
// phases.
type application struct {
	cfg    *config.Config
	logger ectologger.Logger

	sqlDB    *sqlx.DB
	redis    *redis.Client
	producer *kafka.Producer
	echo     *echo.Echo
	checker  *health.Checker
}

func (a *application) startDatabase(ctx context.Context) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		a.cfg.DatabaseHost, a.cfg.DatabasePort, a.cfg.DatabaseUserName,
		a.cfg.DatabasePassword, a.cfg.DatabaseName, a.cfg.DatabaseSSLMode)

	db, err := sqlx.ConnectContext(ctx, a.cfg.DatabaseDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(a.cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(a.cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(a.cfg.DatabaseConnMaxLifetime)
	a.sqlDB = db

	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrations := database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: a.cfg.DatabaseMigrationFolderPath,
		Version:             uint(a.cfg.DatabaseMigrationVersion),
		Force:               a.cfg.DatabaseMigrationForce,
		AutoRollback:        a.cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(a.cfg.DatabaseName, driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (a *application) stopDatabase(_ context.Context) error {
	if a.sqlDB == nil {
		return nil
	}
	return a.sqlDB.Close()
}

func (a *application) startRedis(_ context.Context) error {
	if a.cfg.ClaimRateLimitDisabled {
		a.logger.Info("Claim rate limiting disabled, skipping Redis")
		return nil
	}

	client, err := redis.NewClient(redis.Config{
		Host:     a.cfg.RedisHost,
		Port:     a.cfg.RedisPort,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	}, a.logger)
	if err != nil {
		return err
	}
	a.redis = client
	return nil
}

func (a *application) stopRedis(_ context.Context) error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Close()
}

func (a *application) startKafka(_ context.Context) error {
	if !a.cfg.KafkaProducerEnabled {
		a.logger.Info("Kafka producer disabled, directory events will not be emitted")
		return nil
	}

	a.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      a.cfg.KafkaBrokers,
		Topic:        a.cfg.KafkaOutputTopic,
		BatchSize:    a.cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(a.cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: a.cfg.KafkaRequiredAcks,
		Compression:  a.cfg.KafkaCompression,
	}, a.logger)
	return nil
}

func (a *application) stopKafka(_ context.Context) error {
	if a.producer == nil {
		return nil
	}
	return a.producer.Close()
}

func (a *application) startServer(_ context.Context) error {
	db := database.NewDatabaseInstance(a.sqlDB, a.logger)

	practitioners := practitionerrepo.NewRepository(db, a.logger)
	claims := claimrepo.NewRepository(db, a.logger)
	audits := auditrepo.NewRepository(db, a.logger)
	emitter := events.NewEmitter(a.producer, a.logger)
	importService := importer.NewService(practitioners, audits, emitter, a.logger,
		a.cfg.ImportMaxRows, a.cfg.ImportSlugRetryCount)

	var limiter *redis.RateLimiter
	if a.redis != nil {
		limiter = redis.NewRateLimiter(a.redis, "claim-rl:", a.cfg.ClaimRateLimitPerHour, time.Hour)
	}

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return fmt.Errorf("failed to create DI container: %w", err)
	}
	if err := ectoinject.RegisterInstance[*config.Config](container, a.cfg); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, a.logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*practitionerrepo.Repository](container, practitioners); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*claimrepo.Repository](container, claims); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*auditrepo.Repository](container, audits); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*events.Emitter](container, emitter); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*importer.Service](container, importService); err != nil {
		return err
	}
	if limiter != nil {
		if err := ectoinject.RegisterInstance[*redis.RateLimiter](container, limiter); err != nil {
			return err
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(a.cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(a.cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(a.cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(a.cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = a.cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(a.logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: a.cfg.AllowOrigins,
		AllowMethods: a.cfg.AllowMethods,
	}))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(a.logger))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, err := ectoinject.SetActiveContainer(c.Request().Context(), ectoinject.DefaultContainerConfig.ID)
			if err != nil {
				return err
			}
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	var redisPinger interface{ Ping() error }
	if a.redis != nil {
		redisPinger = a.redis
	}
	a.checker = health.NewChecker(a.sqlDB, redisPinger, version)
	a.checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	practitionerroutes.Register(api.Group("/practitioners"))
	claimroutes.Register(api.Group("/claims"))

	admin := api.Group("/admin", middleware.AdminAuth(a.cfg.AdminAuthEnabled, a.cfg.AdminAuthToken))
	practitionerroutes.RegisterAdmin(admin.Group("/practitioners"))
	claimroutes.RegisterAdmin(admin.Group("/claims"))
	adminroutes.Register(admin)

	a.echo = e

	go func() {
		addr := fmt.Sprintf(":%d", a.cfg.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			a.logger.WithError(err).Error("http server stopped")
		}
	}()

	a.checker.SetReady(true)
	a.logger.WithField("port", a.cfg.Port).Infof("%s listening on port %d", a.cfg.AppName, a.cfg.Port)
	return nil
}

func (a *application) stopServer(ctx context.Context) error {
	if a.checker != nil {
		a.checker.SetReady(false)
	}
	if a.echo == nil {
		return nil
	}
	return a.echo.Shutdown(ctx)
}

// dependency adapts start/stop funcs to the startup graph.
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string     { return d.name }
func (d *dependency) DependsOn() []string { return d.dependsOn }

func (d *dependency) Start(ctx context.Context) error {
	if d.start == nil {
		return nil
	}
	return d.start(ctx)
}

func (d *dependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}
