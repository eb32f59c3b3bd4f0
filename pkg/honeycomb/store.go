package honeycomb

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const lockTimeout = 10 * time.Second

// Store is the Honeycomb persistence layer: episodes are appended to
// both a per-colony JSONL file and a global "_all.jsonl" file, under
// the same OS-advisory-lock append protocol as the Akashic Record
// (§4.2, §4.14), so two processes racing to record the same colony
// never interleave partial lines.
type Store struct {
	basePath string
	logger   *slog.Logger
}

// New returns a Store rooted at <vaultRoot>/honeycomb. The directory is
// created if absent.
func New(vaultRoot string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base := filepath.Join(vaultRoot, "honeycomb")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("honeycomb: create base %s: %w", base, err)
	}
	return &Store{basePath: base, logger: logger}, nil
}

func (s *Store) colonyPath(colonyID string) string {
	return filepath.Join(s.basePath, colonyID+".jsonl")
}

func (s *Store) globalPath() string {
	return filepath.Join(s.basePath, "_all.jsonl")
}

// Append persists episode to both its colony-scoped file and the global
// file, sorted-key JSON one line each.
func (s *Store) Append(episode Episode) error {
	line, err := marshalSortedKeys(episode)
	if err != nil {
		return fmt.Errorf("honeycomb: encode episode %s: %w", episode.EpisodeID, err)
	}

	if err := s.appendLine(s.colonyPath(episode.ColonyID), line); err != nil {
		return err
	}
	if err := s.appendLine(s.globalPath(), line); err != nil {
		return err
	}

	s.logger.Debug("episode recorded",
		"episode_id", episode.EpisodeID, "colony_id", episode.ColonyID, "outcome", episode.Outcome)
	return nil
}

func (s *Store) appendLine(path string, line []byte) error {
	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil || !locked {
		if err == nil {
			err = errors.New("timed out acquiring exclusive lock")
		}
		return fmt.Errorf("honeycomb: lock %s: %w", path, err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("honeycomb: open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("honeycomb: write %s: %w", path, err)
	}
	return nil
}

// ReplayColony returns every episode recorded for colonyID, in append
// order.
func (s *Store) ReplayColony(colonyID string) ([]Episode, error) {
	return s.readEpisodes(s.colonyPath(colonyID))
}

// ReplayAll returns every episode ever recorded, in append order.
func (s *Store) ReplayAll() ([]Episode, error) {
	return s.readEpisodes(s.globalPath())
}

// ListColonies returns the colony ids that have at least one recorded
// episode, sorted.
func (s *Store) ListColonies() ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("honeycomb: list %s: %w", s.basePath, err)
	}
	var colonies []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".jsonl")
		if stem == "_all" {
			continue
		}
		colonies = append(colonies, stem)
	}
	sort.Strings(colonies)
	return colonies, nil
}

// Count returns the number of episodes recorded for colonyID, or the
// total across all colonies if colonyID is empty.
func (s *Store) Count(colonyID string) (int, error) {
	var (
		episodes []Episode
		err      error
	)
	if colonyID != "" {
		episodes, err = s.ReplayColony(colonyID)
	} else {
		episodes, err = s.ReplayAll()
	}
	if err != nil {
		return 0, err
	}
	return len(episodes), nil
}

func (s *Store) readEpisodes(path string) ([]Episode, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("honeycomb: open %s: %w", path, err)
	}
	defer f.Close()

	var episodes []Episode
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var episode Episode
		if err := json.Unmarshal([]byte(line), &episode); err != nil {
			s.logger.Warn("honeycomb: skipping malformed episode line",
				"path", path, "line", lineNum, "error", err)
			continue
		}
		episodes = append(episodes, episode)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("honeycomb: scan %s: %w", path, err)
	}
	return episodes, nil
}

// marshalSortedKeys renders v as JSON with lexicographically sorted
// object keys, matching the Python store's json.dumps(sort_keys=True).
func marshalSortedKeys(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return marshalSorted(generic)
}

func marshalSorted(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			b.Write(kb)
			b.WriteByte(':')
			vb, err := marshalSorted(val[k])
			if err != nil {
				return nil, err
			}
			b.Write(vb)
		}
		b.WriteByte('}')
		return []byte(b.String()), nil
	case []any:
		var b strings.Builder
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			ib, err := marshalSorted(item)
			if err != nil {
				return nil, err
			}
			b.Write(ib)
		}
		b.WriteByte(']')
		return []byte(b.String()), nil
	default:
		return json.Marshal(val)
	}
}
