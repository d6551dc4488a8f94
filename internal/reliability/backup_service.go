package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aristath/mcpricer/internal/database"
	"github.com/rs/zerolog"
)

const (
	// MetadataFilename is the manifest stored alongside the database copies
	MetadataFilename = "backup-metadata.json"

	archivePrefix    = "mcpricer-backup-"
	archiveSuffix    = ".tar.gz"
	archiveTimestamp = "2006-01-02-150405"
	metadataVersion  = "1.0.0"

	// minBackupsToKeep survive rotation regardless of age
	minBackupsToKeep = 3
)

// BackupService snapshots the databases and ships them to object storage
type BackupService struct {
	store     ObjectStore
	databases map[string]*database.DB
	dataDir   string
	now       func() time.Time
	log       zerolog.Logger
}

// BackupMetadata contains metadata about a backup
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Version   string             `json:"version"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata contains metadata about a single database in the backup
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo represents information about a backup stored in the bucket
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// NewBackupService creates a new backup service. Staging files live under dataDir.
func NewBackupService(
	store ObjectStore,
	databases map[string]*database.DB,
	dataDir string,
	log zerolog.Logger,
) *BackupService {
	return &BackupService{
		store:     store,
		databases: databases,
		dataDir:   dataDir,
		now:       time.Now,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// databaseNames returns the configured database names in a stable order
func (s *BackupService) databaseNames() []string {
	names := make([]string, 0, len(s.databases))
	for name, db := range s.databases {
		if db != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// CreateAndUploadBackup writes a consistent copy of every database into a
// tar.gz archive and uploads it. Returns the archive key.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) (string, error) {
	s.log.Info().Msg("Starting backup")
	startTime := s.now()

	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	stagingDir, err := os.MkdirTemp(s.dataDir, "backup-staging-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	dbNames := s.databaseNames()
	metadata := BackupMetadata{
		Timestamp: startTime.UTC(),
		Version:   metadataVersion,
		Databases: make([]DatabaseMetadata, 0, len(dbNames)),
	}

	files := make([]string, 0, len(dbNames)+1)
	for _, dbName := range dbNames {
		filename := dbName + ".db"
		dbPath := filepath.Join(stagingDir, filename)

		s.log.Debug().Str("database", dbName).Msg("Backing up database")

		if err := s.databases[dbName].VacuumInto(ctx, dbPath); err != nil {
			s.log.Error().Err(err).Str("database", dbName).Msg("Failed to backup database")
			return "", fmt.Errorf("failed to backup %s: %w", dbName, err)
		}

		info, err := os.Stat(dbPath)
		if err != nil {
			return "", fmt.Errorf("failed to stat %s backup: %w", dbName, err)
		}

		checksum, err := calculateChecksum(dbPath)
		if err != nil {
			return "", fmt.Errorf("failed to calculate checksum for %s: %w", dbName, err)
		}

		metadata.Databases = append(metadata.Databases, DatabaseMetadata{
			Name:      dbName,
			Filename:  filename,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
		files = append(files, filename)
	}

	if err := writeMetadata(filepath.Join(stagingDir, MetadataFilename), metadata); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}
	files = append(files, MetadataFilename)

	archiveName := archivePrefix + startTime.UTC().Format(archiveTimestamp) + archiveSuffix
	archivePath := filepath.Join(stagingDir, archiveName)

	if err := createArchive(archivePath, stagingDir, files); err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to stat archive: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	if err := s.store.Upload(ctx, archiveName, archiveFile, archiveInfo.Size()); err != nil {
		return "", fmt.Errorf("failed to upload backup: %w", err)
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("archive", archiveName).
		Int("databases", len(dbNames)).
		Int64("size_bytes", archiveInfo.Size()).
		Msg("Backup completed successfully")

	return archiveName, nil
}

// ListBackups lists the backups in the bucket, newest first. Keys that do not
// follow the archive naming scheme are ignored.
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, archivePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(objects))
	now := s.now()

	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}

		// mcpricer-backup-2026-01-08-143022.tar.gz
		filename := *obj.Key
		if !strings.HasPrefix(filename, archivePrefix) || !strings.HasSuffix(filename, archiveSuffix) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(filename, archivePrefix), archiveSuffix)
		timestamp, err := time.Parse(archiveTimestamp, stamp)
		if err != nil {
			s.log.Warn().Str("filename", filename).Msg("Failed to parse timestamp from filename")
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}

		backups = append(backups, BackupInfo{
			Filename:  filename,
			Timestamp: timestamp,
			SizeBytes: sizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// RotateOldBackups deletes backups older than retentionDays, always keeping
// the newest three. A retention of 0 keeps everything. Returns the number deleted.
func (s *BackupService) RotateOldBackups(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	if len(backups) <= minBackupsToKeep {
		s.log.Debug().Int("count", len(backups)).Msg("Too few backups to rotate")
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, backup := range backups[minBackupsToKeep:] {
		if !backup.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, backup.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().Str("filename", backup.Filename).Time("timestamp", backup.Timestamp).Msg("Deleted old backup")
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")

	return deleted, nil
}

// calculateChecksum calculates SHA256 checksum of a file
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

// createArchive writes the named files from sourceDir into a tar.gz at archivePath
func createArchive(archivePath, sourceDir string, filenames []string) (err error) {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if cerr := archiveFile.Close(); err == nil {
			err = cerr
		}
	}()

	gzipWriter := gzip.NewWriter(archiveFile)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, filename := range filenames {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, filename), filename); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", filename, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzipWriter.Close()
}

func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode().Perm()),
		ModTime: info.ModTime(),
	}

	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}
