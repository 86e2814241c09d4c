package backup

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mholt/archives"
)

// Service archives the database and plugin directory into a zip so a
// reader can move their library between machines.
type Service struct {
	dbPath     string
	pluginDir  string
	backupPath string
}

// NewService creates a backup service. backupPath is the directory
// archives are written to.
func NewService(dbPath, pluginDir, backupPath string) *Service {
	return &Service{dbPath: dbPath, pluginDir: pluginDir, backupPath: backupPath}
}

// Export writes a timestamped zip containing the database file and
// every installed plugin, and returns the archive path.
func (s *Service) Export(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.backupPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	sources := map[string]string{
		s.dbPath:    filepath.Base(s.dbPath),
		s.pluginDir: "plugins",
	}
	files, err := archives.FilesFromDisk(ctx, nil, sources)
	if err != nil {
		return "", fmt.Errorf("failed to collect backup files: %w", err)
	}

	archivePath := filepath.Join(s.backupPath,
		fmt.Sprintf("quill-backup-%s.zip", time.Now().Format("20060102-150405")))
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup archive: %w", err)
	}
	defer out.Close()

	format := archives.Zip{}
	if err := format.Archive(ctx, out, files); err != nil {
		os.Remove(archivePath)
		return "", fmt.Errorf("failed to write backup archive: %w", err)
	}

	log.Printf("Backup written to %s", archivePath)
	return archivePath, nil
}

// Import restores plugin files from a backup archive into the plugin
// directory. The database file is not restored while the server holds
// it open; it is extracted alongside the archive for a manual swap.
func (s *Service) Import(ctx context.Context, archivePath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open backup archive: %w", err)
	}
	defer f.Close()

	format := archives.Zip{}
	err = format.Extract(ctx, f, func(ctx context.Context, fi archives.FileInfo) error {
		if fi.IsDir() {
			return nil
		}

		var destPath string
		switch {
		case filepath.Dir(fi.NameInArchive) == "plugins":
			destPath = filepath.Join(s.pluginDir, filepath.Base(fi.NameInArchive))
		default:
			destPath = filepath.Join(s.backupPath, "restored-"+filepath.Base(fi.NameInArchive))
		}

		src, err := fi.Open()
		if err != nil {
			return err
		}
		defer src.Close()

		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}
		dest, err := os.Create(destPath)
		if err != nil {
			return err
		}
		defer dest.Close()
		_, err = io.Copy(dest, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to extract backup archive: %w", err)
	}

	log.Printf("Backup restored from %s", archivePath)
	return nil
}
