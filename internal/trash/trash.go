// Package trash moves directories into the platform trash instead of
// unlinking them, and keeps a record store so trashed items can be listed,
// restored, or pruned.
//
// Linux uses the XDG trash layout (files/ plus info/*.trashinfo) so desktop
// trash UIs can restore items too. macOS moves items into ~/.Trash. Moves
// are same-device renames only: a cross-device item surfaces as a failure
// rather than silently degrading to a permanent delete.
package trash

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/devclean/internal/platform"
	"github.com/fenilsonani/devclean/internal/scanner"
)

var (
	// ErrCrossDevice means the item lives on a different device than the
	// trash directory and cannot be renamed into it
	ErrCrossDevice = errors.New("item is on a different device than the trash directory")
	// ErrNotFound means no trash record matches the given ID
	ErrNotFound = errors.New("trash record not found")
	// ErrOriginalExists means restore would overwrite an existing path
	ErrOriginalExists = errors.New("original path already exists")
)

const trashInfoTimeFormat = "2006-01-02T15:04:05"

// Backend moves items to the platform trash and tracks them in a Store
type Backend struct {
	info  *platform.Info
	store *Store
	log   *logrus.Entry
}

// NewBackend creates a Backend for the given platform, creating the trash
// directories and opening the record store
func NewBackend(info *platform.Info) (*Backend, error) {
	b := &Backend{
		info: info,
		log:  logrus.WithField("component", "trash"),
	}

	if err := os.MkdirAll(b.filesDir(), 0700); err != nil {
		return nil, fmt.Errorf("failed to create trash directory: %w", err)
	}
	if infoDir := b.infoDir(); infoDir != "" {
		if err := os.MkdirAll(infoDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create trash info directory: %w", err)
		}
	}

	store, err := OpenStore(filepath.Join(info.DataDir, "devclean", "records.json"))
	if err != nil {
		return nil, err
	}
	b.store = store
	return b, nil
}

// filesDir returns where trashed payloads live
func (b *Backend) filesDir() string {
	if b.info.OS == platform.Linux {
		return filepath.Join(b.info.TrashDir, "files")
	}
	return b.info.TrashDir
}

// infoDir returns the XDG info directory, or empty where none applies
func (b *Backend) infoDir() string {
	if b.info.OS == platform.Linux {
		return filepath.Join(b.info.TrashDir, "info")
	}
	return ""
}

// Store exposes the record store for listing and lookups
func (b *Backend) Store() *Store {
	return b.store
}

// Trash moves an item into the trash and records it. The returned record's
// ID is what restore and prune commands take.
func (b *Backend) Trash(item *scanner.CleanableItem) (*Record, error) {
	name, trashedPath, err := b.reserveName(filepath.Base(item.Path))
	if err != nil {
		return nil, err
	}

	if infoDir := b.infoDir(); infoDir != "" {
		if err := writeTrashInfo(filepath.Join(infoDir, name+".trashinfo"), item.Path); err != nil {
			return nil, err
		}
	}

	if err := os.Rename(item.Path, trashedPath); err != nil {
		b.discardInfo(name)
		if isCrossDevice(err) {
			return nil, fmt.Errorf("%w: %s", ErrCrossDevice, item.Path)
		}
		return nil, fmt.Errorf("failed to move %s to trash: %w", item.Path, err)
	}

	record := Record{
		ID:           newRecordID(),
		OriginalPath: item.Path,
		TrashedPath:  trashedPath,
		SizeBytes:    item.SizeBytes,
		Category:     item.Category.String(),
		Label:        item.Label,
		DeletedAt:    time.Now(),
	}
	if err := b.store.Add(record); err != nil {
		// The payload is already in the trash; the record write failing
		// must not hide that from the caller.
		return &record, fmt.Errorf("item trashed but record not saved: %w", err)
	}

	b.log.WithFields(logrus.Fields{
		"path":    item.Path,
		"trashed": trashedPath,
		"id":      record.ID,
	}).Debug("Moved item to trash")

	return &record, nil
}

// Restore moves a trashed item back to its original path. Fails if the
// original path is occupied again.
func (b *Backend) Restore(id string) (*Record, error) {
	record, ok := b.store.Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if _, err := os.Lstat(record.OriginalPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrOriginalExists, record.OriginalPath)
	}

	if err := os.MkdirAll(filepath.Dir(record.OriginalPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to recreate parent directory: %w", err)
	}
	if err := os.Rename(record.TrashedPath, record.OriginalPath); err != nil {
		return nil, fmt.Errorf("failed to restore %s: %w", record.OriginalPath, err)
	}

	b.discardInfo(filepath.Base(record.TrashedPath))
	if err := b.store.Remove(record.ID); err != nil {
		return &record, err
	}

	b.log.WithFields(logrus.Fields{
		"path": record.OriginalPath,
		"id":   record.ID,
	}).Debug("Restored item from trash")

	return &record, nil
}

// Prune permanently deletes trashed payloads older than the cutoff and
// drops their records. A zero olderThan prunes everything.
func (b *Backend) Prune(olderThan time.Duration) ([]Record, error) {
	var cutoff time.Time
	if olderThan > 0 {
		cutoff = time.Now().Add(-olderThan)
	}

	pruned, err := b.store.Prune(cutoff)
	if err != nil {
		return nil, err
	}

	for _, r := range pruned {
		if err := os.RemoveAll(r.TrashedPath); err != nil {
			b.log.WithError(err).WithField("path", r.TrashedPath).Warn("Failed to remove trashed payload")
		}
		b.discardInfo(filepath.Base(r.TrashedPath))
	}
	return pruned, nil
}

// reserveName finds a collision-free name in the trash. On Linux the
// .trashinfo create with O_EXCL is what actually claims the name.
func (b *Backend) reserveName(base string) (name, trashedPath string, err error) {
	filesDir := b.filesDir()
	name = base
	for i := 2; ; i++ {
		trashedPath = filepath.Join(filesDir, name)
		if !pathExists(trashedPath) && !b.infoExists(name) {
			return name, trashedPath, nil
		}
		if i > 10000 {
			return "", "", fmt.Errorf("could not find a free trash name for %s", base)
		}
		name = fmt.Sprintf("%s.%d", base, i)
	}
}

func (b *Backend) infoExists(name string) bool {
	infoDir := b.infoDir()
	if infoDir == "" {
		return false
	}
	return pathExists(filepath.Join(infoDir, name+".trashinfo"))
}

func (b *Backend) discardInfo(name string) {
	if infoDir := b.infoDir(); infoDir != "" {
		os.Remove(filepath.Join(infoDir, name+".trashinfo"))
	}
}

// writeTrashInfo creates the XDG .trashinfo file. O_EXCL claims the slot so
// two processes cannot trash into the same name.
func writeTrashInfo(path, originalPath string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create trashinfo: %w", err)
	}
	defer f.Close()

	escaped := (&url.URL{Path: originalPath}).EscapedPath()
	_, err = fmt.Fprintf(f, "[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escaped, time.Now().Format(trashInfoTimeFormat))
	if err != nil {
		return fmt.Errorf("failed to write trashinfo: %w", err)
	}
	return nil
}

// isCrossDevice reports whether a rename failed because source and target
// are on different filesystems
func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, syscall.EXDEV)
	}
	return false
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
