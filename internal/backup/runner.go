package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"blog-api/internal/storage"
)

// Config controls where and how often database snapshots are shipped.
type Config struct {
	Bucket    string
	KeyPrefix string
	Interval  time.Duration
	Logger    *logrus.Logger
}

// Runner periodically snapshots the sqlite database and uploads the copy to
// object storage. Snapshots use VACUUM INTO, which produces a consistent
// copy without blocking writers on its own connection.
type Runner struct {
	db      *sql.DB
	storage storage.Service
	cfg     Config
	done    chan struct{}
}

func NewRunner(db *sql.DB, store storage.Service, cfg Config) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	return &Runner{
		db:      db,
		storage: store,
		cfg:     cfg,
		done:    make(chan struct{}),
	}
}

// Start launches the snapshot loop. It returns immediately; the loop stops
// when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.snapshot(ctx); err != nil {
					r.cfg.Logger.Warnf("backup snapshot: %v", err)
				}
			}
		}
	}()
}

// Wait blocks until the snapshot loop has exited.
func (r *Runner) Wait() {
	<-r.done
}

func (r *Runner) snapshot(ctx context.Context) error {
	tmpDir, err := os.MkdirTemp("", "blog-backup-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	local := filepath.Join(tmpDir, "snapshot.db")
	// VACUUM does not accept bound parameters; the path is our own temp dir.
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`VACUUM INTO '%s'`, local)); err != nil {
		return fmt.Errorf("vacuum into: %w", err)
	}

	key := fmt.Sprintf("%s/%s-%s.db",
		r.cfg.KeyPrefix,
		time.Now().UTC().Format("20060102T150405"),
		uuid.NewString(),
	)

	location, err := r.storage.UploadFile(ctx, local, r.cfg.Bucket, key)
	if err != nil {
		return err
	}

	r.cfg.Logger.Infof("database backup uploaded to %s", location)
	return nil
}
