// Package workinglog implements the Working Log Store: an append-only,
// per-base-commit sequence of checkpoints that survives until the base
// commit is superseded, at which point it is drained by the Checkpoint
// Engine and folded into an authorship log (spec §4.2).
//
// Each checkpoint is written as its own JSON file inside the base commit's
// working-log directory; an index file tracks insertion order via a
// monotonic counter rather than timestamps, since clock skew between agent
// hook invocations must never reorder the chain.
package workinglog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint"
	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
	"github.com/stuartsessions/git-ai-sub000/internal/paths"
	"github.com/stuartsessions/git-ai-sub000/internal/validation"
)

// lockTimeout bounds how long Append/Drain wait for the advisory lock before
// giving up, since a wedged lock should surface as an error rather than hang
// the host git command indefinitely.
const lockTimeout = 5 * time.Second

// ErrConcurrentCheckpoint is returned when the working log's advisory lock
// could not be acquired within lockTimeout, meaning another process is
// concurrently mutating the same base commit's log.
var ErrConcurrentCheckpoint = errors.New("workinglog: concurrent checkpoint in progress")

const (
	indexFile  = "index"
	lockFile   = ".lock"
	entrySuffix = ".json"
)

// Store is a filesystem-backed Working Log Store rooted at the repository's
// private directory.
type Store struct{}

// New returns a Store backed by the repository resolved via paths.RepoRoot.
func New() *Store { return &Store{} }

// Append records a new checkpoint at the end of its base commit's working
// log and returns the ordinal assigned to it. The checkpoint's own Ordinal
// field is set to the returned value.
func (s *Store) Append(ctx context.Context, cp checkpoint.Checkpoint) (checkpoint.Checkpoint, error) {
	if err := validation.ValidateCommitSHA(cp.BaseCommit); err != nil {
		return checkpoint.Checkpoint{}, fmt.Errorf("workinglog: %w", err)
	}
	dir, err := paths.WorkingLogDirFor(cp.BaseCommit)
	if err != nil {
		return checkpoint.Checkpoint{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return checkpoint.Checkpoint{}, fmt.Errorf("workinglog: create log dir: %w", err)
	}

	release, err := acquireLock(ctx, filepath.Join(dir, lockFile))
	if err != nil {
		return checkpoint.Checkpoint{}, err
	}
	defer release()

	ordinal, err := nextOrdinal(dir)
	if err != nil {
		return checkpoint.Checkpoint{}, err
	}
	cp.Ordinal = ordinal
	if cp.ID.IsEmpty() {
		cp.ID = id.NewCheckpointID()
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return checkpoint.Checkpoint{}, fmt.Errorf("workinglog: marshal checkpoint: %w", err)
	}
	entryPath := filepath.Join(dir, entryName(ordinal, cp.ID))
	tmp := entryPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return checkpoint.Checkpoint{}, fmt.Errorf("workinglog: write entry: %w", err)
	}
	if err := os.Rename(tmp, entryPath); err != nil {
		return checkpoint.Checkpoint{}, fmt.Errorf("workinglog: finalize entry: %w", err)
	}
	if err := writeOrdinal(dir, ordinal); err != nil {
		return checkpoint.Checkpoint{}, err
	}
	return cp, nil
}

// List returns every checkpoint recorded for a base commit, ordered by
// ordinal ascending. It does not take the lock; callers that need a
// consistent snapshot while writers are active should use Drain instead.
func (s *Store) List(baseCommit string) ([]checkpoint.Checkpoint, error) {
	dir, err := paths.WorkingLogDirFor(baseCommit)
	if err != nil {
		return nil, err
	}
	return readEntries(dir)
}

// Drain returns every checkpoint for a base commit and removes the working
// log directory, under the advisory lock so no Append can race the removal.
// Drain is called once a commit is formed, handing the chain to the
// Checkpoint Engine for folding into the authorship log.
func (s *Store) Drain(ctx context.Context, baseCommit string) ([]checkpoint.Checkpoint, error) {
	dir, err := paths.WorkingLogDirFor(baseCommit)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	release, err := acquireLock(ctx, filepath.Join(dir, lockFile))
	if err != nil {
		return nil, err
	}
	defer release()

	entries, err := readEntries(dir)
	if err != nil {
		return nil, err
	}
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("workinglog: remove drained log: %w", err)
	}
	return entries, nil
}

func acquireLock(ctx context.Context, path string) (func(), error) {
	fl := flock.New(path)
	lctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	ok, err := fl.TryLockContext(lctx, 25*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("workinglog: acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrConcurrentCheckpoint
	}
	return func() { _ = fl.Unlock() }, nil
}

func nextOrdinal(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("workinglog: read index: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("workinglog: corrupt index: %w", err)
	}
	return n + 1, nil
}

func writeOrdinal(dir string, ordinal int) error {
	path := filepath.Join(dir, indexFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(ordinal)), 0o644); err != nil {
		return fmt.Errorf("workinglog: write index: %w", err)
	}
	return os.Rename(tmp, path)
}

func entryName(ordinal int, cpID id.CheckpointID) string {
	return fmt.Sprintf("%08d-%s%s", ordinal, cpID, entrySuffix)
}

func readEntries(dir string) ([]checkpoint.Checkpoint, error) {
	files, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("workinglog: list entries: %w", err)
	}
	var names []string
	for _, f := range files {
		if strings.HasSuffix(f.Name(), entrySuffix) {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	entries := make([]checkpoint.Checkpoint, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("workinglog: read entry %s: %w", name, err)
		}
		var cp checkpoint.Checkpoint
		if err := json.Unmarshal(data, &cp); err != nil {
			return nil, fmt.Errorf("workinglog: decode entry %s: %w", name, err)
		}
		entries = append(entries, cp)
	}
	return entries, nil
}
