package tasks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"greendrake/carads/internal/config"
	"greendrake/carads/internal/storage"
)

// TaskType defines the type of a background task.
const (
	TypeTempSweep = "uploads:temp:sweep"
)

const queueMaintenance = "maintenance"

// --- Task Client (Enqueuing tasks) ---

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

// NewTempSweepTask builds a task that removes stale upload staging files.
func NewTempSweepTask() *asynq.Task {
	return asynq.NewTask(TypeTempSweep, nil, asynq.Queue(queueMaintenance), asynq.MaxRetry(1), asynq.Timeout(5*time.Minute))
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
type TaskProcessor struct {
	cfg *config.Config
	log *zap.Logger
	now func() time.Time
}

func NewTaskProcessor(cfg *config.Config, log *zap.Logger) *TaskProcessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskProcessor{cfg: cfg, log: log, now: time.Now}
}

// SetupServer configures an Asynq server and its handler mux. The caller runs
// the server with srv.Start(mux) and stops it with srv.Shutdown().
func SetupServer(rdb *redis.Client, processor *TaskProcessor, log *zap.Logger) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default":        3,
				queueMaintenance: 1,
			},
			Logger: log.Sugar(),
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("task failed", zap.String("type", task.Type()), zap.Error(err))
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeTempSweep, processor.HandleTempSweepTask)
	return srv, mux
}

// NewScheduler registers the periodic tasks. The caller starts it with Start().
func NewScheduler(rdb *redis.Client, cfg *config.Config, log *zap.Logger) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt(rdb), &asynq.SchedulerOpts{
		Logger: log.Sugar(),
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Warn("scheduled enqueue failed", zap.Error(err))
			}
		},
	})

	cronspec := fmt.Sprintf("@every %s", cfg.TempSweepInterval)
	if _, err := scheduler.Register(cronspec, NewTempSweepTask()); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", TypeTempSweep, err)
	}
	return scheduler, nil
}

// --- Task Handlers ---

// HandleTempSweepTask removes upload staging files left behind by crashed or
// interrupted requests.
func (p *TaskProcessor) HandleTempSweepTask(ctx context.Context, t *asynq.Task) error {
	removed, err := SweepTempFiles(p.cfg.UploadTempDir, storage.TempFilePrefix, p.cfg.TempFileMaxAge, p.now())
	if err != nil {
		return fmt.Errorf("temp sweep of %s: %w", p.cfg.UploadTempDir, err)
	}
	p.log.Info("temp sweep finished", zap.String("dir", p.cfg.UploadTempDir), zap.Int("removed", removed))
	return nil
}

// SweepTempFiles deletes regular files in dir whose name starts with prefix
// and whose modification time is older than maxAge. It returns the number of
// files removed. Files that vanish mid-sweep are not an error.
func SweepTempFiles(dir, prefix string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
