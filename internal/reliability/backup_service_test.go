package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aristath/mcpricer/internal/database"
	testingpkg "github.com/aristath/mcpricer/internal/testing"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory ObjectStore
type memoryStore struct {
	objects   map[string][]byte
	uploadErr error
	deleted   []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) Upload(_ context.Context, key string, body io.Reader, _ int64) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]types.Object, error) {
	var out []types.Object
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, types.Object{Key: aws.String(key), Size: aws.Int64(int64(len(data)))})
		}
	}
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gz.Close()

	files := map[string][]byte{}
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[header.Name] = content
	}
	return files
}

func TestBackupService_CreateAndUploadBackup(t *testing.T) {
	universeDB, cleanupUniverse := testingpkg.NewTestDB(t, "universe")
	defer cleanupUniverse()
	pricingDB, cleanupPricing := testingpkg.NewTestDB(t, "pricing")
	defer cleanupPricing()

	_, err := pricingDB.Conn().Exec(`INSERT INTO products (id, name, request, created_at) VALUES ('p1', 'call', '{}', 0)`)
	require.NoError(t, err)

	store := newMemoryStore()
	dataDir := t.TempDir()
	svc := NewBackupService(store, map[string]*database.DB{
		"universe": universeDB,
		"pricing":  pricingDB,
		"unused":   nil,
	}, dataDir, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 1, 8, 14, 30, 22, 0, time.UTC) }

	key, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mcpricer-backup-2026-01-08-143022.tar.gz", key)
	require.Contains(t, store.objects, key)

	files := readArchive(t, store.objects[key])
	require.Contains(t, files, MetadataFilename)
	require.Contains(t, files, "pricing.db")
	require.Contains(t, files, "universe.db")
	assert.Len(t, files, 3)

	var metadata BackupMetadata
	require.NoError(t, json.Unmarshal(files[MetadataFilename], &metadata))
	assert.Equal(t, "1.0.0", metadata.Version)
	require.Len(t, metadata.Databases, 2)
	assert.Equal(t, "pricing", metadata.Databases[0].Name)
	assert.Equal(t, "universe", metadata.Databases[1].Name)

	for _, db := range metadata.Databases {
		content := files[db.Filename]
		assert.Equal(t, int64(len(content)), db.SizeBytes)
		assert.Equal(t, fmt.Sprintf("sha256:%x", sha256.Sum256(content)), db.Checksum)
	}

	// Staging is removed after upload
	entries, err := os.ReadDir(dataDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBackupService_UploadFailure(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "pricing")
	defer cleanup()

	store := newMemoryStore()
	store.uploadErr = errors.New("bucket unavailable")
	svc := NewBackupService(store, map[string]*database.DB{"pricing": db}, t.TempDir(), zerolog.Nop())

	_, err := svc.CreateAndUploadBackup(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.uploadErr)
}

func backupKey(ts time.Time) string {
	return archivePrefix + ts.Format(archiveTimestamp) + archiveSuffix
}

func TestBackupService_ListBackups(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore()
	store.objects[backupKey(now.Add(-48*time.Hour))] = []byte("old")
	store.objects[backupKey(now.Add(-2*time.Hour))] = []byte("newer")
	store.objects["mcpricer-backup-garbage.tar.gz"] = []byte("x")
	store.objects["mcpricer-backup-2026-01-01-000000.zip"] = []byte("x")

	svc := NewBackupService(store, nil, t.TempDir(), zerolog.Nop())
	svc.now = func() time.Time { return now }

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, int64(2), backups[0].AgeHours)
	assert.Equal(t, int64(5), backups[0].SizeBytes)
	assert.Equal(t, int64(48), backups[1].AgeHours)
}

func TestBackupService_RotateOldBackups(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		ageDays       []int
		retentionDays int
		wantDeleted   []int
	}{
		{name: "retention disabled", ageDays: []int{1, 40, 50, 60, 70}, retentionDays: 0},
		{name: "too few backups", ageDays: []int{40, 50, 60}, retentionDays: 30},
		{name: "newest three always kept", ageDays: []int{40, 50, 60, 70, 80}, retentionDays: 30, wantDeleted: []int{70, 80}},
		{name: "only expired beyond minimum", ageDays: []int{1, 2, 3, 10, 45}, retentionDays: 30, wantDeleted: []int{45}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			for _, d := range tt.ageDays {
				store.objects[backupKey(now.AddDate(0, 0, -d))] = []byte("x")
			}
			svc := NewBackupService(store, nil, t.TempDir(), zerolog.Nop())
			svc.now = func() time.Time { return now }

			deleted, err := svc.RotateOldBackups(context.Background(), tt.retentionDays)
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantDeleted), deleted)

			var want []string
			for _, d := range tt.wantDeleted {
				want = append(want, backupKey(now.AddDate(0, 0, -d)))
			}
			got := append([]string(nil), store.deleted...)
			sort.Strings(want)
			sort.Strings(got)
			assert.Equal(t, want, got)
		})
	}
}

func TestBackupJob(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "pricing")
	defer cleanup()

	store := newMemoryStore()
	svc := NewBackupService(store, map[string]*database.DB{"pricing": db}, t.TempDir(), zerolog.Nop())
	job := NewBackupJob(svc, 30, zerolog.Nop())

	assert.Equal(t, "backup", job.Name())
	require.NoError(t, job.Run())
	assert.Len(t, store.objects, 1)

	store.uploadErr = errors.New("denied")
	assert.Error(t, job.Run())
}

func TestNewS3Client_RequiresBucket(t *testing.T) {
	_, err := NewS3Client(context.Background(), nil, zerolog.Nop())
	assert.Error(t, err)
}
