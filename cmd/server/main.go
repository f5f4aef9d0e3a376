// Package main is the entry point for the Stock Market Mindset study
// server. It hosts the participant flow (consent, demographics,
// tutorials, investment tasks, checkpoints, feedback), the append-only
// event record, and the researcher-facing monitoring endpoints.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/mindset/internal/config"
	"github.com/aristath/mindset/internal/database"
	"github.com/aristath/mindset/internal/modules/catalog"
	"github.com/aristath/mindset/internal/modules/eventlog"
	"github.com/aristath/mindset/internal/modules/flow"
	"github.com/aristath/mindset/internal/modules/session"
	"github.com/aristath/mindset/internal/modules/stats"
	"github.com/aristath/mindset/internal/modules/study"
	"github.com/aristath/mindset/internal/monitor"
	"github.com/aristath/mindset/internal/reliability"
	"github.com/aristath/mindset/internal/scheduler"
	"github.com/aristath/mindset/internal/server"
	"github.com/aristath/mindset/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet; write plainly and exit
		println("failed to load configuration:", err.Error())
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Int("num_tasks", cfg.Study.NumTasks).
		Float64("initial_amount", cfg.Study.InitialAmount).
		Str("storage", cfg.Storage).
		Msg("Starting Stock Market Mindset server")

	// Event sink: SQLite is the preferred backend; any failure to open
	// or migrate falls back to append-only JSONL files so the study
	// never refuses participants over a database problem.
	sink, db, statsService := buildSink(cfg, log)
	if db != nil {
		defer db.Close()
	}

	cat, err := catalog.Load(cfg.TasksFile, log)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.TasksFile).Msg("Failed to load task content")
	}
	if cat.NumTasks() < cfg.Study.NumTasks {
		log.Fatal().
			Int("have", cat.NumTasks()).
			Int("need", cfg.Study.NumTasks).
			Msg("Task content file has fewer tasks than the study requires")
	}

	sessions := session.NewManager(cfg.Study.NumTasks, cfg.Study.InitialAmount, log)
	snapshots, err := session.NewSnapshotStore(filepath.Join(cfg.DataDir, "sessions"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session snapshot store")
	}
	restoreSessions(sessions, snapshots, log)

	guard := flow.NewGuard(cfg.Study.NumTasks, cfg.Study.FirstCheckpoint())
	bus := monitor.NewBus(log)
	controller := study.New(cat, sessions, guard, sink, bus, cfg.Study, log)

	// Background jobs
	sched := scheduler.New(log)
	registerJobs(sched, cfg, db, sessions, snapshots, log)
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:     cfg.Port,
		Log:      log,
		DataDir:  cfg.DataDir,
		DevMode:  cfg.DevMode,
		DB:       db,
		Study:    study.NewHandlers(controller, log),
		Stats:    statsService,
		Sessions: sessions,
		Monitor:  bus,
	})

	go func() {
		// ListenAndServe reports graceful shutdown as ErrServerClosed;
		// only a real startup failure is fatal
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Snapshot live sessions so in-progress participants can resume
	// after a restart
	saveSessions(sessions, snapshots, log)

	log.Info().Msg("Server stopped")
}

// buildSink opens the preferred event sink, falling back to the file
// sink when SQLite is unavailable. The stats service is only available
// on the SQLite backend.
func buildSink(cfg *config.Config, log zerolog.Logger) (eventlog.Sink, *database.DB, *stats.Service) {
	if cfg.Storage == "sqlite" {
		db, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, "study.db"),
			Profile: database.ProfileLedger,
			Name:    "study",
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to open study database, falling back to file sink")
		} else {
			store := eventlog.NewSQLiteStore(db.Conn(), log)
			if err := store.Init(); err != nil {
				log.Error().Err(err).Msg("Failed to migrate study database, falling back to file sink")
				db.Close()
			} else {
				return store, db, stats.NewService(store, log)
			}
		}
	}

	fileStore, err := eventlog.NewFileStore(filepath.Join(cfg.DataDir, "participant_logs"), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open file sink")
	}
	return fileStore, nil, nil
}

// restoreSessions re-registers snapshotted sessions after a restart
func restoreSessions(sessions *session.Manager, snapshots *session.SnapshotStore, log zerolog.Logger) {
	states, err := snapshots.LoadAll()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load session snapshots")
		return
	}

	restored := 0
	for _, state := range states {
		if err := sessions.Restore(state); err != nil {
			log.Warn().Err(err).Str("session_id", state.ID).Msg("Failed to restore session")
			continue
		}
		restored++
	}

	if restored > 0 {
		log.Info().Int("restored", restored).Msg("Restored session snapshots")
	}
}

// saveSessions snapshots all live sessions at shutdown
func saveSessions(sessions *session.Manager, snapshots *session.SnapshotStore, log zerolog.Logger) {
	for _, state := range sessions.All() {
		if err := snapshots.Save(state); err != nil {
			log.Warn().Err(err).Str("session_id", state.ID).Msg("Failed to snapshot session")
		}
	}
}

// registerJobs wires the background jobs: session housekeeping, daily
// maintenance, and the nightly backup when a bucket is configured.
func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	db *database.DB,
	sessions *session.Manager,
	snapshots *session.SnapshotStore,
	log zerolog.Logger,
) {
	mustAdd := func(schedule string, job scheduler.Job) {
		if err := sched.AddJob(schedule, job); err != nil {
			log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
		}
	}

	mustAdd("@every 1m", scheduler.NewSessionSnapshotJob(sessions, snapshots, log))
	mustAdd("@hourly", scheduler.NewSessionSweepJob(sessions, snapshots, 24*time.Hour, log))

	if db != nil {
		maintenance := reliability.NewDailyMaintenanceJob(db, cfg.DataDir, log)
		mustAdd("0 2 * * *", maintenance)

		// Surface integrity or disk problems at boot rather than at 2 AM
		if err := sched.RunNow(maintenance); err != nil {
			log.Error().Err(err).Msg("Startup maintenance check failed")
		}

		if cfg.Backup != nil && cfg.Backup.Enabled {
			client, err := reliability.NewS3Client(context.Background(), cfg.Backup, log)
			if err != nil {
				log.Error().Err(err).Msg("Failed to create backup client, backups disabled")
				return
			}
			backupSvc := reliability.NewBackupService(db, client, cfg.DataDir, cfg.Backup.Keep, log)
			mustAdd("0 3 * * *", reliability.NewBackupJob(backupSvc))
		}
	}
}
