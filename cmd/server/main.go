package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	httpadapter "resume-builder/internal/adapter/http"
	repo "resume-builder/internal/adapter/repository"
	"resume-builder/internal/bootstrap"
	"resume-builder/internal/config"
	"resume-builder/internal/infrastructure/migration"
	"resume-builder/internal/usecase"
	infra "resume-builder/pkg/infrastructure"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := bootstrap.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(log)

	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		log.Debug(fmt.Sprintf(format, args...))
	}))

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		jobs     usecase.JobsRepo = repo.NewMemoryJobs()
		sessions usecase.SessionsRepo
	)

	jobsPool, err := infra.NewJobsPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Warn("jobs DB not available, keeping export jobs in memory", "error", err)
	} else {
		defer jobsPool.Close()
		if cfg.Database.Migrate {
			if err := migration.RunMigrations(ctx, jobsPool, log); err != nil {
				return err
			}
		}
		jobs = repo.NewJobsRepo(jobsPool)
	}

	switch cfg.Sessions.Backend {
	case config.BackendRedis:
		client, err := infra.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		sessions = repo.NewRedisSessions(client, cfg.Sessions.TTL)
	case config.BackendPostgres:
		if jobsPool == nil {
			return fmt.Errorf("sessions backend postgres needs the jobs database: %w", err)
		}
		sessions = repo.NewSessionsRepo(jobsPool, cfg.Sessions.TTL)
	default:
		sessions = repo.NewMemorySessions(cfg.Sessions.TTL)
	}

	encoders, err := bootstrap.Encoders(cfg.Render)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter := usecase.NewExporter(encoders, jobs, log,
		usecase.WithSessions(sessions),
		usecase.WithMetrics(usecase.NewMetrics(reg)),
	)
	generator := usecase.NewGenerator(sessions, log)

	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	httpadapter.NewHandler(generator, exporter, log).Register(app, reg)

	errc := make(chan error, 1)
	go func() {
		addr := ":" + strconv.Itoa(cfg.Server.Port)
		log.Info("listening", "addr", addr, "render_engine", cfg.Render.Engine, "sessions", cfg.Sessions.Backend)
		errc <- app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		return err
	}
	exporter.Wait()
	return nil
}
