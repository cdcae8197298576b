package ftpsync

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galerija/imagepipe/internal/config"
	"github.com/galerija/imagepipe/internal/ftp"
	"github.com/galerija/imagepipe/internal/store"
)

type fakeSession struct {
	mu          sync.Mutex
	entries     []ftp.Entry
	files       map[string][]byte
	downloadErr map[string]error
	changedDir  string
	removed     []string
	closeCount  int
}

func newFakeSession() *fakeSession {
	return &fakeSession{files: map[string][]byte{}, downloadErr: map[string]error{}}
}

func (s *fakeSession) ChangeDir(dir string) error {
	s.changedDir = dir
	return nil
}

func (s *fakeSession) List(_ string) ([]ftp.Entry, error) {
	return s.entries, nil
}

func (s *fakeSession) Download(remoteName, localPath string) error {
	if err := s.downloadErr[remoteName]; err != nil {
		return err
	}
	data, ok := s.files[remoteName]
	if !ok {
		return fmt.Errorf("no such file %s", remoteName)
	}
	return os.WriteFile(localPath, data, 0o644)
}

func (s *fakeSession) Remove(remoteName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, remoteName)
	return nil
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCount++
}

type uploadRecord struct {
	key         string
	contentType string
	data        []byte
}

type fakeStore struct {
	mu      sync.Mutex
	uploads []uploadRecord
	putErr  error
}

func (f *fakeStore) Exists(_ context.Context, _ string) (bool, error) { return true, nil }

func (f *fakeStore) EnsureBucket(_ context.Context, _ string) error { return nil }

func (f *fakeStore) List(_ context.Context, _, _ string) ([]store.ObjectInfo, error) {
	return nil, nil
}

func (f *fakeStore) Stat(_ context.Context, _, key string) (store.ObjectInfo, error) {
	return store.ObjectInfo{Key: key}, nil
}

func (f *fakeStore) GetToFile(_ context.Context, _, _, _ string) error { return nil }

func (f *fakeStore) PutFromFile(_ context.Context, _, key, localPath, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, uploadRecord{key: key, contentType: contentType, data: data})
	return nil
}

func (f *fakeStore) Remove(_ context.Context, _, _ string) error { return nil }

func (f *fakeStore) PresignedGetURL(_ context.Context, _, _ string, _ time.Duration) (string, error) {
	return "", nil
}

var _ store.Store = (*fakeStore)(nil)

func newTestSyncer(t *testing.T, st *fakeStore, sess *fakeSession, deleteAfterUpload bool) *Syncer {
	t.Helper()
	syncCfg := config.Sync{
		CronSchedule:      "0 * * * *",
		LookbackHours:     24,
		DeleteAfterUpload: deleteAfterUpload,
	}
	ftpCfg := config.FTP{Host: "ftp.example.com", RemotePath: "/incoming"}
	s := New(st, ftpCfg, syncCfg, "products", t.TempDir())
	return s.WithDialer(func(_ config.FTP) (Session, error) { return sess, nil })
}

func TestSyncOnceImportsRecentFiles(t *testing.T) {
	now := time.Now()
	sess := newFakeSession()
	sess.entries = []ftp.Entry{
		{Name: "fresh.jpg", ModifiedAt: now.Add(-2 * time.Hour)},
		{Name: "stale.jpg", ModifiedAt: now.Add(-30 * time.Hour)},
		{Name: "subdir", Dir: true, ModifiedAt: now},
	}
	sess.files["fresh.jpg"] = []byte("fresh-bytes")
	st := &fakeStore{}
	syncer := newTestSyncer(t, st, sess, false)

	require.NoError(t, syncer.SyncOnce(context.Background()))

	assert.Equal(t, "/incoming", sess.changedDir)
	require.Len(t, st.uploads, 1)
	assert.Equal(t, "fresh.jpg", st.uploads[0].key)
	assert.Equal(t, "image/jpeg", st.uploads[0].contentType)
	assert.Equal(t, []byte("fresh-bytes"), st.uploads[0].data)
	assert.Empty(t, sess.removed, "remote deletion is off by default")
	assert.Equal(t, 1, sess.closeCount, "session released exactly once")
}

func TestSyncOnceDeletesRemoteOnlyAfterUpload(t *testing.T) {
	now := time.Now()

	t.Run("upload succeeds", func(t *testing.T) {
		sess := newFakeSession()
		sess.entries = []ftp.Entry{{Name: "a.png", ModifiedAt: now}}
		sess.files["a.png"] = []byte("png-bytes")
		st := &fakeStore{}
		syncer := newTestSyncer(t, st, sess, true)

		require.NoError(t, syncer.SyncOnce(context.Background()))
		assert.Equal(t, []string{"a.png"}, sess.removed)
	})

	t.Run("upload fails", func(t *testing.T) {
		sess := newFakeSession()
		sess.entries = []ftp.Entry{{Name: "a.png", ModifiedAt: now}}
		sess.files["a.png"] = []byte("png-bytes")
		st := &fakeStore{putErr: fmt.Errorf("bucket unavailable")}
		syncer := newTestSyncer(t, st, sess, true)

		require.NoError(t, syncer.SyncOnce(context.Background()))
		assert.Empty(t, sess.removed, "remote file must survive a failed upload")
	})
}

func TestSyncOnceContinuesPastFailedImports(t *testing.T) {
	now := time.Now()
	sess := newFakeSession()
	sess.entries = []ftp.Entry{
		{Name: "broken.jpg", ModifiedAt: now},
		{Name: "good.jpg", ModifiedAt: now},
	}
	sess.files["good.jpg"] = []byte("good-bytes")
	sess.downloadErr["broken.jpg"] = fmt.Errorf("transfer aborted")
	st := &fakeStore{}
	syncer := newTestSyncer(t, st, sess, false)

	require.NoError(t, syncer.SyncOnce(context.Background()))

	require.Len(t, st.uploads, 1)
	assert.Equal(t, "good.jpg", st.uploads[0].key)
	assert.Equal(t, 1, sess.closeCount)
}

func TestSyncOnceCleansTempFiles(t *testing.T) {
	now := time.Now()
	sess := newFakeSession()
	sess.entries = []ftp.Entry{{Name: "fresh.jpg", ModifiedAt: now}}
	sess.files["fresh.jpg"] = []byte("bytes")
	st := &fakeStore{}

	tempDir := t.TempDir()
	syncCfg := config.Sync{CronSchedule: "0 * * * *", LookbackHours: 24}
	syncer := New(st, config.FTP{Host: "h", RemotePath: "/incoming"}, syncCfg, "products", tempDir).
		WithDialer(func(_ config.FTP) (Session, error) { return sess, nil })

	require.NoError(t, syncer.SyncOnce(context.Background()))

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp directory should be empty after the pass")
}

func TestSyncOnceDialFailure(t *testing.T) {
	st := &fakeStore{}
	syncCfg := config.Sync{CronSchedule: "0 * * * *", LookbackHours: 24}
	syncer := New(st, config.FTP{Host: "h"}, syncCfg, "products", t.TempDir()).
		WithDialer(func(_ config.FTP) (Session, error) { return nil, fmt.Errorf("dial tcp: refused") })

	err := syncer.SyncOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect")
}

func TestMimeFor(t *testing.T) {
	assert.Equal(t, "image/jpeg", mimeFor("photo.JPG"))
	assert.Equal(t, "image/webp", mimeFor("photo.webp"))
	assert.Equal(t, "application/octet-stream", mimeFor("notes.txt"))
}
