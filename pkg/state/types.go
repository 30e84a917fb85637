package state

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ErrCorrupt marks stored data that exists but cannot be decoded.
var ErrCorrupt = errors.New("state: corrupt snapshot")

// ErrReadOnly is returned by stores that only serve reads.
var ErrReadOnly = errors.New("state: store is read-only")

// Ref identifies one persisted snapshot.
type Ref struct {
	Name string
	Path string
}

// Meta is storage-owned metadata describing the persisted bytes.
type Meta struct {
	ETag      string            `json:"etag,omitempty"`
	Size      int64             `json:"size,omitempty"`
	UpdatedAt time.Time         `json:"updated_at,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one snapshot for a single reference.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

// Identifier returns the canonical key for ref: its cleaned path.
func (r Ref) Identifier() (string, error) {
	path := strings.TrimSpace(r.Path)
	if path == "" {
		return "", fmt.Errorf("state: missing path for ref %q", r.Name)
	}
	return filepath.Clean(path), nil
}

// Label names ref for logs and errors.
func (r Ref) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Path
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}

func mergeMeta(base, override Meta) Meta {
	out := cloneMeta(base)
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if override.Size != 0 {
		out.Size = override.Size
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = cloneMeta(override).Extra
	}
	return out
}
