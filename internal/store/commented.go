package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// CommentedSet is the persisted set of video URLs that already received a
// comment. Every Add is written to disk before it returns.
type CommentedSet struct {
	mu   sync.Mutex
	path string
	log  *zap.SugaredLogger
	urls []string
	seen map[string]struct{}
}

// LoadCommented reads the set stored at path. A missing, unreadable or
// malformed file yields an empty set.
func LoadCommented(log *zap.SugaredLogger, path string) *CommentedSet {
	s := &CommentedSet{
		path: path,
		log:  log,
		seen: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info("No commented videos file found. Starting fresh.")
		} else {
			log.Errorf("Failed to load commented videos: %v", err)
		}
		return s
	}

	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		log.Error("Commented videos file contains invalid JSON. Starting fresh.")
		return s
	}

	for _, u := range urls {
		s.insert(u)
	}
	log.Infof("Loaded %d previously commented videos.", len(s.urls))
	return s
}

func (s *CommentedSet) insert(url string) bool {
	if _, ok := s.seen[url]; ok {
		return false
	}
	s.seen[url] = struct{}{}
	s.urls = append(s.urls, url)
	return true
}

// Has reports whether url was already commented on.
func (s *CommentedSet) Has(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[url]
	return ok
}

// Add records url and persists the set. Adding a known URL is a no-op.
func (s *CommentedSet) Add(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.insert(url) {
		return nil
	}
	if err := s.save(); err != nil {
		s.log.Errorf("Failed to save commented videos: %v", err)
		return err
	}
	s.log.Info("Commented videos have been saved successfully.")
	return nil
}

// Len returns the number of recorded URLs.
func (s *CommentedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

// URLs returns the recorded URLs in insertion order.
func (s *CommentedSet) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

// save writes through a temp file so a crash never leaves a truncated list.
func (s *CommentedSet) save() error {
	data, err := json.Marshal(s.urls)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write commented videos: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
