// Package storage abstracts where generated artifacts live, so the rendering
// tools never touch the filesystem directly and a cloud backend can replace
// the local one without changing them.
package storage

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Artifact describes one stored file: where it lives on disk and where users
// can fetch it.
type Artifact struct {
	Name      string
	Path      string
	PublicURL string
}

// Provider is the artifact storage backend.
type Provider interface {
	// Save streams the artifact through write and returns its location.
	// An existing file with the same name is never overwritten.
	Save(name string, write func(io.Writer) error) (Artifact, error)
	Delete(name string) error
	// CleanupOlderThan removes artifacts older than age and reports how many.
	CleanupOlderThan(age time.Duration) (int, error)
}

// Local stores artifacts in a directory served by the exports endpoint.
type Local struct {
	dir           string
	publicBaseURL string
}

// NewLocal creates the directory if needed.
func NewLocal(dir, publicBaseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	log.Printf("[Storage] local dir=%s", dir)
	return &Local{dir: dir, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

func (l *Local) Save(name string, write func(io.Writer) error) (Artifact, error) {
	name = filepath.Base(name)
	final := l.nextFreeName(name)
	path := filepath.Join(l.dir, final)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Artifact{}, fmt.Errorf("create artifact %s: %w", final, err)
	}

	if err := write(f); err != nil {
		f.Close()
		_ = os.Remove(path)
		return Artifact{}, fmt.Errorf("write artifact %s: %w", final, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return Artifact{}, fmt.Errorf("close artifact %s: %w", final, err)
	}

	log.Printf("[Storage] saved file=%s", final)
	return Artifact{
		Name:      final,
		Path:      path,
		PublicURL: l.publicBaseURL + "/" + final,
	}, nil
}

// nextFreeName appends _1, _2, ... while the name is taken, matching how
// users expect re-exports to behave.
func (l *Local) nextFreeName(name string) string {
	if _, err := os.Stat(filepath.Join(l.dir, name)); err != nil {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(filepath.Join(l.dir, candidate)); err != nil {
			return candidate
		}
	}
}

func (l *Local) Delete(name string) error {
	path := filepath.Join(l.dir, filepath.Base(name))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete artifact: %w", err)
	}
	log.Printf("[Storage] deleted file=%s", filepath.Base(name))
	return nil
}

func (l *Local) CleanupOlderThan(age time.Duration) (int, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return 0, fmt.Errorf("read storage dir: %w", err)
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(l.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		log.Printf("[Storage] cleanup removed=%d older_than=%s", removed, age)
	}
	return removed, nil
}
