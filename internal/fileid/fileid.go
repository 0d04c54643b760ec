// Package fileid identifies inbox files so unchanged files are not ingested twice.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const prefix = "file:"

// FileID returns a stable id for the given absolute path.
// Same path always yields the same id.
func FileID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}

// Stamp is the modification time and size a file had when it was last ingested.
type Stamp struct {
	ModTime time.Time
	Size    int64
}

// StampOf returns the stamp of info.
func StampOf(info os.FileInfo) Stamp {
	return Stamp{ModTime: info.ModTime(), Size: info.Size()}
}

// Registry remembers the stamp of every ingested file.
type Registry struct {
	mu     sync.Mutex
	stamps map[string]Stamp
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stamps: make(map[string]Stamp)}
}

// Unchanged reports whether path was recorded with the same stamp.
func (r *Registry) Unchanged(path string, s Stamp) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.stamps[FileID(path)]
	return ok && prev.Size == s.Size && prev.ModTime.Equal(s.ModTime)
}

// Record stores the stamp for path.
func (r *Registry) Record(path string, s Stamp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stamps[FileID(path)] = s
}

// Len returns the number of recorded files.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stamps)
}
