// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package store provides atomic JSON document persistence over a
// filesystem root: load/save/drop of documents keyed by a relative path,
// plus a breadth-first directory walk. Every higher-level repository in the
// server — UserDirectory, TokenStore, RotationRegistry, AccessEvaluator —
// is built over a [*Store].
package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrNotFound is returned by loaders when a document does not exist,
// letting callers translate filesystem absence into their own "return
// default" or domain-level 404 semantics.
var ErrNotFound = errors.New("store: document not found")

// Store roots every document path at Root and serializes concurrent writes
// to the same relative path in-process (per-key mutex). SaveDocument also
// holds a sibling .lock file via gofrs/flock across processes;
// DropDocument does not take that file lock.
type Store struct {
	Root string

	locks keyedMutex
}

// New returns a Store rooted at root. The directory is not created here;
// the first SaveDocument call creates whatever parent directories it needs.
func New(root string) *Store {
	return &Store{Root: root}
}

func (s *Store) abs(relPath string) string {
	return filepath.Join(s.Root, filepath.FromSlash(relPath))
}

// ReadRaw reads the raw bytes of the document at relPath as a string,
// without any JSON decoding. It returns [ErrNotFound] if the file does
// not exist. Used for the line-oriented rule files (.access, .group,
// access.txt) the access evaluator parses, and for the existence checks
// behind HEAD and DELETE on private resources.
func (s *Store) ReadRaw(relPath string) (string, error) {
	data, err := os.ReadFile(s.abs(relPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

// LoadDocument reads the JSON document at relPath and unmarshals it into out.
// It returns [ErrNotFound] if the file does not exist.
func (s *Store) LoadDocument(relPath string, out interface{}) error {
	data, err := os.ReadFile(s.abs(relPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, out)
}

// SaveDocument atomically replaces the JSON document at relPath with the
// marshaled form of value. Parent directories are created as needed. The
// write goes to a temp file in the same directory, fsynced, then renamed
// over the destination so a crash mid-write never leaves a torn document.
func (s *Store) SaveDocument(relPath string, value interface{}) error {
	unlock := s.locks.Lock(relPath)
	defer unlock()

	target := s.abs(relPath)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	fileLock := flock.New(target + ".lock")
	if err := fileLock.Lock(); err != nil {
		return err
	}
	defer fileLock.Unlock()

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, target)
}

// DropDocument removes the document at relPath. Removing an absent file is
// a no-op.
func (s *Store) DropDocument(relPath string) error {
	unlock := s.locks.Lock(relPath)
	defer unlock()

	err := os.Remove(s.abs(relPath))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Entry is one node yielded by Walk.
type Entry struct {
	Path   string // relative to Root, slash-separated
	IsFile bool
}

// Walk enumerates every file and directory under prefix breadth-first,
// relative to Root. A missing prefix yields no entries and no error.
func (s *Store) Walk(prefix string) ([]Entry, error) {
	root := s.abs(prefix)
	var entries []Entry

	queue := []string{root}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		children, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}

		for _, child := range children {
			full := filepath.Join(dir, child.Name())
			rel, err := filepath.Rel(s.Root, full)
			if err != nil {
				return nil, err
			}
			rel = filepath.ToSlash(rel)

			if child.IsDir() {
				entries = append(entries, Entry{Path: rel, IsFile: false})
				queue = append(queue, full)
				continue
			}
			entries = append(entries, Entry{Path: rel, IsFile: true})
		}
	}

	return entries, nil
}
