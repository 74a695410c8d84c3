package logging

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const dayLayout = "2006-01-02"

// fileSink appends JSON log lines to an active file and rotates it at
// each UTC day boundary. Closed files keep the name of the day they
// cover (app.log.json.2026-08-21) and only the newest maxArchives of
// them survive pruning. Write never returns an error: a sink failure
// must not take a request down with it.
type fileSink struct {
	mu          sync.Mutex
	path        string
	maxArchives int
	now         func() time.Time
	onRotate    func(archivePath string)

	file *os.File
	day  string
}

func newFileSink(path string, maxArchives int, onRotate func(string)) (*fileSink, error) {
	s := &fileSink{
		path:        path,
		maxArchives: maxArchives,
		now:         time.Now,
		onRotate:    onRotate,
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		if err := s.open(); err != nil {
			return len(p), nil
		}
	}
	if s.today() != s.day {
		s.rotate()
	}
	if s.file != nil {
		s.file.Write(p)
	}
	return len(p), nil
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *fileSink) today() string {
	return s.now().UTC().Format(dayLayout)
}

// open creates the log directory and the active file. An active file
// left over from an earlier day is archived before the new one opens.
func (s *fileSink) open() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if info, err := os.Stat(s.path); err == nil && info.Size() > 0 {
		if day := info.ModTime().UTC().Format(dayLayout); day != s.today() {
			s.archive(day)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	s.file = f
	s.day = s.today()
	return nil
}

// rotate closes the active file under the sink lock, so concurrent
// writers never interleave across a boundary.
func (s *fileSink) rotate() {
	closedDay := s.day
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
	s.archive(closedDay)
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	s.file = f
	s.day = s.today()
}

func (s *fileSink) archive(day string) {
	archived := s.path + "." + day
	if err := os.Rename(s.path, archived); err != nil {
		return
	}
	s.prune()
	if s.onRotate != nil {
		s.onRotate(archived)
	}
}

// prune deletes the oldest archives beyond the retention count. The
// date suffix makes lexicographic order chronological.
func (s *fileSink) prune() {
	matches, err := filepath.Glob(s.path + ".*")
	if err != nil || len(matches) <= s.maxArchives {
		return
	}
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-s.maxArchives] {
		os.Remove(old)
	}
}
