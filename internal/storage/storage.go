package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/cornwall-collections/internal/calendar"
	"github.com/pfrederiksen/cornwall-collections/internal/collection"
)

const (
	DefaultICSFile  = "cornwall_collection.ics"
	FilePermissions = 0644
	tmpSuffix       = ".tmp"
)

// Storage handles writing exports under a base directory
type Storage struct {
	dataDir string
}

// New creates a new Storage instance rooted at dataDir
func New(dataDir string) (*Storage, error) {
	dir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = "."
	}

	return &Storage{
		dataDir: dir,
	}, nil
}

// ExpandHome expands a leading ~/ to the user's home directory
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Path resolves name against the base directory. Absolute and ~/ paths are
// used as given.
func (s *Storage) Path(name string) (string, error) {
	expanded, err := ExpandHome(name)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return expanded, nil
	}
	return filepath.Join(s.dataDir, expanded), nil
}

// WriteCalendar writes collections as an iCalendar file and returns its path
func (s *Storage) WriteCalendar(name string, collections []*collection.Collection, opts calendar.Options) (string, error) {
	if name == "" {
		name = DefaultICSFile
	}
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}

	err = writeAtomic(path, func(w io.Writer) error {
		return calendar.WriteICS(w, collections, opts)
	})
	if err != nil {
		return "", fmt.Errorf("writing calendar: %w", err)
	}
	return path, nil
}

// WriteJSON writes v as indented JSON and returns the file path
func (s *Storage) WriteJSON(name string, v interface{}) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}

	err = writeAtomic(path, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	})
	if err != nil {
		return "", fmt.Errorf("writing json: %w", err)
	}
	return path, nil
}

// writeAtomic creates parent directories, writes to path+".tmp" and renames
func writeAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp := path + tmpSuffix
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, FilePermissions)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming file: %w", err)
	}
	return nil
}
