package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultFileMode is applied to written snapshots: owner/group read-write,
// world read-only.
const DefaultFileMode fs.FileMode = 0o764

// FileStore persists snapshots as JSON files. Maps are written with sorted keys
// and two-space indentation so files diff cleanly.
type FileStore[T any] struct {
	// Mode is applied to the file after every write. Zero means DefaultFileMode.
	Mode fs.FileMode
	// Disabled turns Save into a no-op. Load still reads.
	Disabled bool
	// Now stamps Meta.UpdatedAt on save. Defaults to time.Now.
	Now func() time.Time
}

// NewFileStore returns a FileStore writing files with mode.
func NewFileStore[T any](mode fs.FileMode, disabled bool) *FileStore[T] {
	return &FileStore[T]{Mode: mode, Disabled: disabled}
}

func (s *FileStore[T]) Load(ctx context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	path, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data, info, err := readFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return zero, Meta{}, false, nil
	}
	if err != nil {
		recordRead(ctx, ref, err)
		return zero, Meta{}, false, fmt.Errorf("state: read %s: %w", path, err)
	}

	var snapshot T
	if err := json.Unmarshal(data, &snapshot); err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
		recordRead(ctx, ref, err)
		return zero, Meta{}, false, err
	}
	recordRead(ctx, ref, nil)

	return snapshot, Meta{
		ETag:      etag(data),
		Size:      int64(len(data)),
		UpdatedAt: info.ModTime(),
	}, true, nil
}

func (s *FileStore[T]) Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	path, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	if s.Disabled {
		return cloneMeta(meta), nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		err = newWriteError("encode", path, err)
		recordWrite(ctx, ref, err)
		return Meta{}, err
	}
	payload = append(payload, '\n')

	err = writeAtomic(path, payload, s.mode())
	recordWrite(ctx, ref, err)
	if err != nil {
		return Meta{}, err
	}

	return mergeMeta(meta, Meta{
		ETag:      etag(payload),
		Size:      int64(len(payload)),
		UpdatedAt: s.now(),
	}), nil
}

func (s *FileStore[T]) mode() fs.FileMode {
	if s.Mode == 0 {
		return DefaultFileMode
	}
	return s.Mode
}

func (s *FileStore[T]) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func readFile(path string) ([]byte, fs.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("%s is a directory", path)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, err
	}
	return data, info, nil
}

// writeAtomic writes payload next to path and renames it into place so
// readers in other processes never observe a partial file.
func writeAtomic(path string, payload []byte, mode fs.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newWriteError("mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return newWriteError("create", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(payload); err != nil {
		return newWriteError("write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return newWriteError("sync", path, err)
	}
	if err := tmp.Close(); err != nil {
		return newWriteError("close", path, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return newWriteError("chmod", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return newWriteError("rename", path, err)
	}
	return nil
}

func etag(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
