package notesstore

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/memory"
)

func newTestRepo(t *testing.T) *git.Repository {
	t.Helper()
	repo, err := git.Init(memory.NewStorage(), memfs.New())
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	return repo
}

const shaA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
const shaB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

func TestPutGet_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	s := New(repo)
	ctx := context.Background()

	if err := s.Put(ctx, shaA, []byte(`{"schema_version":"3.0.0"}`)); err != nil {
		t.Fatal(err)
	}
	data, ok, err := s.Get(shaA)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected note to exist")
	}
	if string(data) != `{"schema_version":"3.0.0"}` {
		t.Fatalf("unexpected data: %s", data)
	}
}

func TestPut_LastWriterWins(t *testing.T) {
	repo := newTestRepo(t)
	s := New(repo)
	ctx := context.Background()

	_ = s.Put(ctx, shaA, []byte("first"))
	_ = s.Put(ctx, shaA, []byte("second"))

	data, ok, err := s.Get(shaA)
	if err != nil || !ok {
		t.Fatalf("expected note, got ok=%v err=%v", ok, err)
	}
	if string(data) != "second" {
		t.Fatalf("expected last write to win, got %q", data)
	}
}

func TestCopyAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	s := New(repo)
	ctx := context.Background()

	_ = s.Put(ctx, shaA, []byte("payload"))
	if err := s.Copy(ctx, shaA, shaB); err != nil {
		t.Fatal(err)
	}
	data, ok, _ := s.Get(shaB)
	if !ok || string(data) != "payload" {
		t.Fatalf("expected copied note, got ok=%v data=%q", ok, data)
	}

	if err := s.Delete(ctx, shaA); err != nil {
		t.Fatal(err)
	}
	_, ok, _ = s.Get(shaA)
	if ok {
		t.Fatal("expected note to be deleted")
	}
	// shaB's note should survive shaA's deletion independently.
	_, ok, _ = s.Get(shaB)
	if !ok {
		t.Fatal("expected unrelated note to survive")
	}
}

func TestGet_MissingNote(t *testing.T) {
	repo := newTestRepo(t)
	s := New(repo)
	_, ok, err := s.Get(shaA)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no note in a fresh repo")
	}
}

func TestRefspec(t *testing.T) {
	if got := Refspec(); got != "refs/notes/git-ai:refs/notes/git-ai" {
		t.Fatalf("unexpected refspec: %q", got)
	}
}
