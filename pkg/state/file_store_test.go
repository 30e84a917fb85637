package state_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"

	"github.com/goliatone/go-params/pkg/state"
)

type record map[string]any

func TestFileStoreLoadMissing(t *testing.T) {
	store := state.NewFileStore[record](0, false)
	ref := state.Ref{Name: "primary", Path: filepath.Join(t.TempDir(), "params.json")}

	_, _, ok, err := store.Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("expected nil error for missing file, got %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for missing file")
	}
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := state.NewFileStore[record](0, false)

	_, _, ok, err := store.Load(context.Background(), state.Ref{Path: path})
	if ok {
		t.Fatalf("expected ok=false for corrupt file")
	}
	if !errors.Is(err, state.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestFileStoreLoadDirectory(t *testing.T) {
	store := state.NewFileStore[record](0, false)
	_, _, ok, err := store.Load(context.Background(), state.Ref{Path: t.TempDir()})
	if ok || err == nil {
		t.Fatalf("expected a directory to fail loading, got ok=%v err=%v", ok, err)
	}
}

func TestFileStoreSaveWritesSortedIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "params.json")
	store := state.NewFileStore[record](0o640, false)
	ref := state.Ref{Name: "primary", Path: path}

	meta, err := store.Save(context.Background(), ref, record{"b": 2, "a": true, "c": map[string]any{"z": 1, "y": nil}}, state.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.ETag == "" || meta.Size == 0 || meta.UpdatedAt.IsZero() {
		t.Fatalf("expected meta to be populated, got %+v", meta)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "{\n  \"a\": true,\n  \"b\": 2,\n  \"c\": {\n    \"y\": null,\n    \"z\": 1\n  }\n}\n"
	if string(raw) != want {
		t.Fatalf("unexpected file contents:\nwant: %q\n got: %q", want, string(raw))
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Mode().Perm() != 0o640 {
			t.Fatalf("expected mode 0640, got %o", info.Mode().Perm())
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	store := state.NewFileStore[record](0, false)
	ref := state.Ref{Path: path}

	saved, err := store.Save(context.Background(), ref, record{"camera_offset": 0.06, "osm": true}, state.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, meta, ok, err := store.Load(context.Background(), ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got["camera_offset"] != 0.06 || got["osm"] != true {
		t.Fatalf("unexpected snapshot: %#v", got)
	}
	if meta.ETag != saved.ETag {
		t.Fatalf("expected etag %q, got %q", saved.ETag, meta.ETag)
	}
}

func TestFileStoreDisabledSkipsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	store := state.NewFileStore[record](0, true)

	if _, err := store.Save(context.Background(), state.Ref{Path: path}, record{"a": 1}, state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no file to be written, stat err=%v", err)
	}
}

func TestFileStoreSaveEncodeFailure(t *testing.T) {
	store := state.NewFileStore[record](0, false)
	_, err := store.Save(context.Background(), state.Ref{Path: filepath.Join(t.TempDir(), "p.json")}, record{"c": make(chan int)}, state.Meta{})

	var writeErr *state.WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected WriteError, got %T %v", err, err)
	}
	if writeErr.Op != "encode" {
		t.Fatalf("expected encode op, got %q", writeErr.Op)
	}
	if !errors.Is(err, state.ErrWriteFailed) {
		t.Fatalf("expected errors.Is ErrWriteFailed")
	}
	if writeErr.Retryable() {
		t.Fatalf("encode failures are not retryable")
	}
}

func TestFileStoreRequiresPath(t *testing.T) {
	store := state.NewFileStore[record](0, false)
	if _, _, _, err := store.Load(context.Background(), state.Ref{Name: "primary"}); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := store.Save(context.Background(), state.Ref{Name: "primary"}, record{}, state.Meta{}); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestWriteErrorRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "disk full", err: &os.PathError{Op: "write", Path: "p", Err: syscall.ENOSPC}, want: true},
		{name: "busy", err: syscall.EBUSY, want: true},
		{name: "permission", err: &os.PathError{Op: "open", Path: "p", Err: syscall.EACCES}, want: false},
		{name: "other", err: errors.New("boom"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := &state.WriteError{Op: "write", Path: "p", Err: tc.err}
			if got := err.Retryable(); got != tc.want {
				t.Fatalf("expected retryable=%v, got %v", tc.want, got)
			}
			if got := state.IsRetryable(err); got != tc.want {
				t.Fatalf("expected IsRetryable=%v, got %v", tc.want, got)
			}
		})
	}
	if state.IsRetryable(errors.New("plain")) {
		t.Fatalf("plain errors are never retryable")
	}
}

func TestReadOnlyRejectsSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	if err := os.WriteFile(path, []byte(`{"a":9}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	legacy := state.ReadOnly[record](state.NewFileStore[record](0, false))
	ref := state.Ref{Name: "legacy", Path: path}

	got, _, ok, err := legacy.Load(context.Background(), ref)
	if err != nil || !ok || got["a"] != float64(9) {
		t.Fatalf("unexpected load: %v ok=%v err=%v", got, ok, err)
	}
	_, err = legacy.Save(context.Background(), ref, record{"a": 1}, state.Meta{})
	if !errors.Is(err, state.ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != `{"a":9}` {
		t.Fatalf("legacy file modified: %q", raw)
	}
	if state.ReadOnly[record](nil) != nil {
		t.Fatalf("expected nil store to stay nil")
	}
}
