package workinglog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint"
	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
)

func TestOrdinalRoundTrip(t *testing.T) {
	dir := t.TempDir()

	n, err := nextOrdinal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected first ordinal 0, got %d", n)
	}

	if err := writeOrdinal(dir, 0); err != nil {
		t.Fatal(err)
	}
	n, err = nextOrdinal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected next ordinal 1, got %d", n)
	}
}

func TestReadEntries_OrdersByOrdinal(t *testing.T) {
	dir := t.TempDir()
	write := func(ordinal int, cpID id.CheckpointID) {
		cp := checkpoint.Checkpoint{ID: cpID, Ordinal: ordinal, BaseCommit: "deadbeef"}
		data, err := json.Marshal(cp)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, entryName(ordinal, cpID)), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	a := id.NewCheckpointID()
	b := id.NewCheckpointID()
	write(1, b)
	write(0, a)

	entries, err := readEntries(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Ordinal != 0 || entries[1].Ordinal != 1 {
		t.Fatalf("expected entries ordered by ordinal, got %+v", entries)
	}
}

func TestAcquireLock_TimesOutWhenHeld(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, lockFile)

	holder := flock.New(lockPath)
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("failed to take initial lock: %v, %v", ok, err)
	}
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = acquireLock(ctx, lockPath)
	if err != ErrConcurrentCheckpoint {
		t.Fatalf("expected ErrConcurrentCheckpoint, got %v", err)
	}
}
