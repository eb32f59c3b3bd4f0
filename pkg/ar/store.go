// Package ar implements the Akashic Record: a set of independently
// addressable, append-only, hash-chained event streams, one file per
// stream, with OS advisory file locking making append atomic across
// processes on the same machine.
package ar

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/hiveforge/hiveforge/pkg/events"
)

// lockTimeout bounds exclusive-lock acquisition for an append; a timeout
// is fatal for that append per §4.2.
const lockTimeout = 10 * time.Second

// backwardScanStartChunk is the initial chunk size used when scanning
// backward from the end of a stream file to recover the tail line; it
// doubles on failure up to backwardScanMaxChunk before falling back to a
// full read.
const backwardScanStartChunk = 4 << 10 // 4 KiB
const backwardScanMaxChunk = 1 << 20   // 1 MiB

// StorageError wraps a fatal storage failure: lock timeout, I/O failure,
// or chain mismatch. Per §7 it is fatal for the current operation.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ar: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store is an append-only, hash-chained multi-stream event log rooted at
// a directory; each stream is a subdirectory holding an events.jsonl file.
// Store is safe for concurrent use by multiple goroutines and multiple
// processes (synchronization across processes is via OS advisory locks,
// scoped per stream file).
type Store struct {
	root   string
	logger *slog.Logger
}

// New returns a Store rooted at root. root is created if absent.
func New(root string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ar: create root %s: %w", root, err)
	}
	return &Store{root: root, logger: logger}, nil
}

func (s *Store) streamPath(key string) string {
	return filepath.Join(s.root, key, "events.jsonl")
}

// lockCtx bounds advisory-lock acquisition at lockTimeout; a context
// deadline exceeded surfaces as a timeout error to the caller.
func lockCtx() context.Context {
	ctx, _ := context.WithTimeout(context.Background(), lockTimeout)
	return ctx
}

// Append performs the atomic append protocol: acquire an exclusive lock,
// recover the stream tail's hash, stamp prev_hash, compute hash, append,
// release. It returns the appended event (with PrevHash/Hash populated).
func (s *Store) Append(key string, e *events.Event) (*events.Event, error) {
	path := s.streamPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StorageError{Op: "append", Key: key, Err: err}
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(lockCtx(), 50*time.Millisecond)
	if err != nil || !locked {
		if err == nil {
			err = errors.New("timed out acquiring exclusive lock")
		}
		return nil, &StorageError{Op: "append", Key: key, Err: err}
	}
	defer lock.Unlock()

	lastHash, err := s.lastHash(path)
	if err != nil {
		return nil, &StorageError{Op: "append", Key: key, Err: err}
	}

	out := e.Clone()
	out.PrevHash = lastHash
	out.Hash = events.Hash(out)

	line, err := events.Marshal(out)
	if err != nil {
		return nil, &StorageError{Op: "append", Key: key, Err: err}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &StorageError{Op: "append", Key: key, Err: err}
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return nil, &StorageError{Op: "append", Key: key, Err: err}
	}

	return out, nil
}

// lastHash recovers the hash of the last event in the stream file at
// path, or "" if the file is absent or empty. It scans backward in
// doubling chunks (per §4.2) to avoid a full read on large streams.
func (s *Store) lastHash(path string) (string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	size := info.Size()
	if size == 0 {
		return "", nil
	}

	chunk := int64(backwardScanStartChunk)
	for {
		start := size - chunk
		if start < 0 {
			start = 0
		}
		buf := make([]byte, size-start)
		if _, err := f.ReadAt(buf, start); err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}

		lastLine, ok := extractLastLine(buf, start == 0)
		if ok {
			var tail struct {
				Hash string `json:"hash"`
			}
			if err := json.Unmarshal(lastLine, &tail); err != nil {
				return "", fmt.Errorf("parse tail line: %w", err)
			}
			return tail.Hash, nil
		}

		if start == 0 {
			return "", errors.New("stream file has no terminated line")
		}
		if chunk >= backwardScanMaxChunk {
			// Fall back to a full read.
			full := make([]byte, size)
			if _, err := f.ReadAt(full, 0); err != nil && !errors.Is(err, io.EOF) {
				return "", err
			}
			lastLine, ok := extractLastLine(full, true)
			if !ok {
				return "", errors.New("stream file has no terminated line")
			}
			var tail struct {
				Hash string `json:"hash"`
			}
			if err := json.Unmarshal(lastLine, &tail); err != nil {
				return "", fmt.Errorf("parse tail line: %w", err)
			}
			return tail.Hash, nil
		}
		chunk *= 2
	}
}

// extractLastLine finds the last non-empty, newline-terminated (or
// EOF-terminated when atStart indicates the buffer holds the file's
// start) line within buf. Newline bytes (0x0A) never occur as UTF-8
// continuation bytes, so scanning for them is safe regardless of where
// the chunk boundary falls inside a multi-byte rune.
func extractLastLine(buf []byte, atStart bool) ([]byte, bool) {
	trimmed := bytes.TrimRight(buf, "\n")
	if len(trimmed) == 0 {
		return nil, false
	}
	idx := bytes.LastIndexByte(trimmed, '\n')
	if idx < 0 {
		if !atStart {
			// The buffer doesn't contain a full line; caller should widen.
			return nil, false
		}
		return trimmed, true
	}
	return trimmed[idx+1:], true
}

// Replay streams all events in key's stream in order under a shared
// lock, optionally filtered by timestamp range. Pass a zero time.Time for
// an unbounded side of the range.
func (s *Store) Replay(key string, since, until time.Time) ([]*events.Event, error) {
	path := s.streamPath(key)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	lock := flock.New(path + ".lock")
	locked, err := lock.TryRLockContext(lockCtx(), 50*time.Millisecond)
	if err != nil || !locked {
		if err == nil {
			err = errors.New("timed out acquiring shared lock")
		}
		return nil, &StorageError{Op: "replay", Key: key, Err: err}
	}
	defer lock.Unlock()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "replay", Key: key, Err: err}
	}
	defer f.Close()

	var out []*events.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		e, err := events.Parse(line)
		if err != nil {
			return nil, &StorageError{Op: "replay", Key: key, Err: err}
		}
		if !since.IsZero() && e.Timestamp.Before(since) {
			continue
		}
		if !until.IsZero() && e.Timestamp.After(until) {
			continue
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, &StorageError{Op: "replay", Key: key, Err: err}
	}
	return out, nil
}

// VerifyChain walks key's stream and checks the chain invariant: e[0]'s
// PrevHash is empty, and every subsequent event's PrevHash equals the
// previous event's Hash. It returns the id of the first offending event,
// or "" if the chain is intact.
func (s *Store) VerifyChain(key string) (string, error) {
	evs, err := s.Replay(key, time.Time{}, time.Time{})
	if err != nil {
		return "", err
	}
	for i, e := range evs {
		if i == 0 {
			if e.PrevHash != "" {
				return e.ID, nil
			}
			continue
		}
		if e.PrevHash != evs[i-1].Hash {
			return e.ID, nil
		}
	}
	return "", nil
}

// VerifyChainStrict additionally re-derives and compares each event's
// Hash, not just the PrevHash linkage. This is the "recommended
// extension" noted in §9; it is not invoked by VerifyChain by default.
func (s *Store) VerifyChainStrict(key string) (string, error) {
	evs, err := s.Replay(key, time.Time{}, time.Time{})
	if err != nil {
		return "", err
	}
	for i, e := range evs {
		if events.Hash(e) != e.Hash {
			return e.ID, nil
		}
		if i == 0 {
			if e.PrevHash != "" {
				return e.ID, nil
			}
			continue
		}
		if e.PrevHash != evs[i-1].Hash {
			return e.ID, nil
		}
	}
	return "", nil
}

// ListStreams returns the keys of all streams with a non-empty events
// file under the store root.
func (s *Store) ListStreams() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &StorageError{Op: "list_streams", Err: err}
	}
	var keys []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := os.Stat(s.streamPath(entry.Name()))
		if err != nil || info.Size() == 0 {
			continue
		}
		keys = append(keys, entry.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

// Count returns the number of events in key's stream.
func (s *Store) Count(key string) (int, error) {
	evs, err := s.Replay(key, time.Time{}, time.Time{})
	if err != nil {
		return 0, err
	}
	return len(evs), nil
}

// Last returns the most recent event in key's stream, or nil if the
// stream is empty or absent.
func (s *Store) Last(key string) (*events.Event, error) {
	evs, err := s.Replay(key, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	if len(evs) == 0 {
		return nil, nil
	}
	return evs[len(evs)-1], nil
}

// Export writes key's stream verbatim (one canonical wire line per event)
// to w.
func (s *Store) Export(key string, w io.Writer) error {
	evs, err := s.Replay(key, time.Time{}, time.Time{})
	if err != nil {
		return err
	}
	for _, e := range evs {
		line, err := events.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	return nil
}
