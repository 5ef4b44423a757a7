package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"proctorfeed/internal/config"
	"proctorfeed/internal/logger"
)

const fileLayout = "2006-01-02_15-04_05.000"

// Snapshot is a flagged frame waiting to be written to disk.
type Snapshot struct {
	ID   string
	At   time.Time
	Data []byte
}

// AnnotateFunc may rewrite a snapshot before it is written.
type AnnotateFunc func(jpeg []byte) ([]byte, error)

// BufferService buffers snapshots in memory and periodically flushes them to disk.
type BufferService struct {
	dir      string
	limit    int
	interval time.Duration
	annotate AnnotateFunc

	mu      sync.Mutex
	pending []Snapshot
	index   map[string]string // safeName(id) -> file name on disk
	logger  *logger.Logger
}

// NewBufferService creates a BufferService writing into cfg.SnapshotDirectory.
func NewBufferService(cfg *config.Config, logger *logger.Logger, annotate AnnotateFunc) *BufferService {
	limit := cfg.SnapshotBufferLimit
	if limit <= 0 {
		limit = 10
	}
	interval := time.Duration(cfg.SnapshotFlushInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	dir := filepath.Join(cfg.SnapshotDirectory, cfg.CacheNamespace)
	return &BufferService{
		dir:      dir,
		limit:    limit,
		interval: interval,
		annotate: annotate,
		index:    scanDir(dir),
		logger:   logger,
	}
}

// Run flushes on a ticker until ctx is done, then flushes once more.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// Add buffers a snapshot. A full buffer is flushed first.
func (s *BufferService) Add(snap Snapshot) {
	s.mu.Lock()
	full := len(s.pending) >= s.limit
	s.mu.Unlock()
	if full {
		s.Flush()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pending {
		if p.ID == snap.ID {
			return
		}
	}
	s.pending = append(s.pending, snap)
	s.logger.Debug("Snapshot buffer: %d/%d", len(s.pending), s.limit)
}

// Get returns the snapshot from the buffer or from disk.
func (s *BufferService) Get(id string) ([]byte, bool) {
	s.mu.Lock()
	for _, p := range s.pending {
		if p.ID == id {
			data := p.Data
			s.mu.Unlock()
			return data, true
		}
	}
	name, ok := s.index[safeName(id)]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		s.logger.Warning("Archived snapshot %s unreadable: %v", id, err)
		return nil, false
	}
	return data, true
}

// Remove drops the snapshot from the buffer and the disk.
func (s *BufferService) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.pending {
		if p.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	if name, ok := s.index[safeName(id)]; ok {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			s.logger.Error("Failed to delete snapshot %s: %v", name, err)
		}
		delete(s.index, safeName(id))
	}
}

// Flush writes buffered snapshots to disk and clears the buffer.
func (s *BufferService) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return
	}

	saved := 0
	for _, snap := range s.pending {
		data := snap.Data
		if s.annotate != nil {
			if annotated, err := s.annotate(data); err == nil {
				data = annotated
			} else {
				s.logger.Debug("Snapshot %s not annotated: %v", snap.ID, err)
			}
		}

		filename := fmt.Sprintf("%s_%s.jpg", snap.At.Format(fileLayout), safeName(snap.ID))
		if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0644); err != nil {
			s.logger.Error("Error saving snapshot %s: %v", filename, err)
			continue
		}
		s.index[safeName(snap.ID)] = filename
		saved++
	}

	s.logger.Info("💾 Flushed %d snapshots to %s", saved, s.dir)
	s.pending = s.pending[:0]
}

// Pending returns the number of buffered snapshots.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '_':
			return '-'
		}
		return r
	}, id)
}

// scanDir rebuilds the id index from files flushed by an earlier run.
func scanDir(dir string) map[string]string {
	index := make(map[string]string)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return index
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".jpg" {
			continue
		}
		// <date>_<hh-mm>_<ss.mmm>_<id>.jpg
		parts := strings.SplitN(strings.TrimSuffix(name, ".jpg"), "_", 4)
		if len(parts) != 4 {
			continue
		}
		index[parts[3]] = name
	}
	return index
}
