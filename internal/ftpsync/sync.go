// Package ftpsync imports fresh files from the remote FTP drop
// directory into the object store bucket, where the creation events
// hand them to the resize pipeline.
package ftpsync

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/galerija/imagepipe/internal/config"
	"github.com/galerija/imagepipe/internal/ftp"
	"github.com/galerija/imagepipe/internal/store"
	"github.com/galerija/imagepipe/pkg/logger"
)

// Session is the slice of the FTP client the syncer needs. Satisfied by
// *ftp.Session; faked in tests.
type Session interface {
	ChangeDir(dir string) error
	List(dir string) ([]ftp.Entry, error)
	Download(remoteName, localPath string) error
	Remove(remoteName string) error
	Close()
}

// Dialer opens an authenticated session.
type Dialer func(cfg config.FTP) (Session, error)

func defaultDialer(cfg config.FTP) (Session, error) {
	return ftp.Dial(cfg)
}

type Syncer struct {
	store   store.Store
	dial    Dialer
	ftpCfg  config.FTP
	syncCfg config.Sync
	bucket  string
	tempDir string
	log     zerolog.Logger
}

func New(st store.Store, ftpCfg config.FTP, syncCfg config.Sync, bucket, tempDir string) *Syncer {
	return &Syncer{
		store:   st,
		dial:    defaultDialer,
		ftpCfg:  ftpCfg,
		syncCfg: syncCfg,
		bucket:  bucket,
		tempDir: tempDir,
		log:     logger.Component("ftpsync"),
	}
}

// WithDialer swaps the session factory, for tests.
func (s *Syncer) WithDialer(d Dialer) *Syncer {
	s.dial = d
	return s
}

// Start schedules periodic syncs and fires one delayed initial run. It
// blocks until ctx is cancelled.
func (s *Syncer) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(s.syncCfg.CronSchedule, func() {
		if err := s.SyncOnce(ctx); err != nil {
			s.log.Error().Err(err).Msg("scheduled sync failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.syncCfg.CronSchedule, err)
	}

	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.syncCfg.InitialDelay):
		}
		if err := s.SyncOnce(ctx); err != nil {
			s.log.Error().Err(err).Msg("initial sync failed")
		}
	}()

	c.Start()
	s.log.Info().Str("schedule", s.syncCfg.CronSchedule).Msg("sync scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// SyncOnce performs one import pass: list the remote directory, keep
// plain files inside the lookback window, pull each one into the bucket.
// The FTP session is released exactly once on every exit path.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	sess, err := s.dial(s.ftpCfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer sess.Close()

	if err := sess.ChangeDir(s.ftpCfg.RemotePath); err != nil {
		return err
	}

	entries, err := sess.List(".")
	if err != nil {
		return err
	}

	lookback := time.Duration(s.syncCfg.LookbackHours) * time.Hour
	now := time.Now()

	var recent []ftp.Entry
	for _, e := range entries {
		if e.Dir {
			continue
		}
		if ftp.Recent(e.ModifiedAt, now, lookback) {
			recent = append(recent, e)
		}
	}
	s.log.Info().Int("total", len(entries)).Int("recent", len(recent)).Int("lookback_hours", s.syncCfg.LookbackHours).Msg("remote listing filtered")

	for _, e := range recent {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.importFile(ctx, sess, e.Name); err != nil {
			s.log.Error().Err(err).Str("file", e.Name).Msg("import failed")
		}
	}

	return nil
}

// importFile downloads one remote file, uploads it into the bucket and
// removes the local copy. The remote file is deleted only when so
// configured and only after a successful upload.
func (s *Syncer) importFile(ctx context.Context, sess Session, name string) error {
	localPath := filepath.Join(s.tempDir, fmt.Sprintf("sync_%s_%s", uuid.NewString(), path.Base(name)))
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			s.log.Error().Err(err).Str("path", localPath).Msg("failed to remove temp file")
		}
	}()

	if err := sess.Download(name, localPath); err != nil {
		return err
	}

	if err := s.store.PutFromFile(ctx, s.bucket, name, localPath, mimeFor(name)); err != nil {
		return err
	}
	s.log.Info().Str("file", name).Str("bucket", s.bucket).Msg("file imported")

	if s.syncCfg.DeleteAfterUpload {
		if err := sess.Remove(name); err != nil {
			s.log.Error().Err(err).Str("file", name).Msg("failed to delete remote file")
		} else {
			s.log.Info().Str("file", name).Msg("remote file deleted")
		}
	}

	return nil
}

func mimeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}
