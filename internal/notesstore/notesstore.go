// Package notesstore implements the Notes Store: a mapping from commit SHA
// to an authorship-log blob, held in a dedicated notes namespace separate
// from git's default notes (spec §4.4).
//
// Git's own notes convention stores one blob per annotated commit in a tree
// keyed by the commit's SHA, fanned out by its first two hex characters to
// keep any one tree directory small. A "notes commit" on
// refs/notes/<namespace> points at that tree; writing a note means building
// a new tree (reusing unaffected fanout subtrees where possible) and
// committing it with the previous notes commit as parent.
package notesstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/stuartsessions/git-ai-sub000/internal/paths"
)

// Namespace is the notes ref namespace this store owns, distinct from
// git's default notes (refs/notes/commits).
const Namespace = paths.NotesNamespace

// Store reads and writes the notes tree for one namespace in one repository.
type Store struct {
	repo    *git.Repository
	refName plumbing.ReferenceName
}

// New opens a Store over an already-open repository.
func New(repo *git.Repository) *Store {
	return &Store{repo: repo, refName: plumbing.NewReferenceName("refs/notes/" + Namespace)}
}

// Refspec returns the fetch/push refspec consumers should configure to keep
// notes synchronized (spec §4.4: "the store exposes refspec()").
func Refspec() string {
	return fmt.Sprintf("refs/notes/%s:refs/notes/%s", Namespace, Namespace)
}

func fanoutPath(sha string) (dir, file string) {
	if len(sha) < 3 {
		return "", sha
	}
	return sha[:2], sha[2:]
}

func (s *Store) headTree() (*object.Tree, plumbing.Hash, error) {
	ref, err := s.repo.Reference(s.refName, true)
	if err != nil {
		return nil, plumbing.ZeroHash, nil
	}
	commit, err := s.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("notesstore: load notes commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("notesstore: load notes tree: %w", err)
	}
	return tree, ref.Hash(), nil
}

// Get returns the blob stored for a commit SHA, or ok=false if none exists.
func (s *Store) Get(sha string) ([]byte, bool, error) {
	tree, _, err := s.headTree()
	if err != nil {
		return nil, false, err
	}
	if tree == nil {
		return nil, false, nil
	}
	dir, file := fanoutPath(sha)
	path := file
	if dir != "" {
		path = dir + "/" + file
	}
	f, err := tree.File(path)
	if err != nil {
		return nil, false, nil
	}
	content, err := f.Contents()
	if err != nil {
		return nil, false, fmt.Errorf("notesstore: read blob for %s: %w", sha, err)
	}
	return []byte(content), true, nil
}

// Put stores bytes for a commit SHA, replacing any existing note
// (idempotent last-writer-wins per spec §5).
func (s *Store) Put(ctx context.Context, sha string, data []byte) error {
	return s.mutate(ctx, fmt.Sprintf("git-ai: note for %s", shortSHA(sha)), func(entries map[string]object.TreeEntry) error {
		blobHash, err := s.writeBlob(data)
		if err != nil {
			return err
		}
		entries[treeKey(sha)] = object.TreeEntry{Name: treeKey(sha), Mode: filemode.Regular, Hash: blobHash}
		return nil
	})
}

// Copy duplicates the note from src to dst, a no-op if src has no note.
// Used by the Rewrite Adapter when a rewritten commit's content is
// unchanged from its source.
func (s *Store) Copy(ctx context.Context, srcSHA, dstSHA string) error {
	data, ok, err := s.Get(srcSHA)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return s.Put(ctx, dstSHA, data)
}

// Delete removes the note for a commit SHA, if present.
func (s *Store) Delete(ctx context.Context, sha string) error {
	return s.mutate(ctx, fmt.Sprintf("git-ai: remove note for %s", shortSHA(sha)), func(entries map[string]object.TreeEntry) error {
		delete(entries, treeKey(sha))
		return nil
	})
}

// Entry pairs a commit SHA with its note payload, returned by ListRange.
type Entry struct {
	SHA  string
	Data []byte
}

// ListRange returns every note reachable from the notes tree whose commit
// SHA is present in the provided allow-list (the commits touched by
// revspec, resolved by the caller via the host binary).
func ListRange(repo *git.Repository, shas []string) ([]Entry, error) {
	s := New(repo)
	var out []Entry
	for _, sha := range shas {
		data, ok, err := s.Get(sha)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Entry{SHA: sha, Data: data})
		}
	}
	return out, nil
}

func treeKey(sha string) string {
	dir, file := fanoutPath(sha)
	if dir == "" {
		return file
	}
	return dir + "/" + file
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func (s *Store) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("notesstore: open blob writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, fmt.Errorf("notesstore: write blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("notesstore: close blob writer: %w", err)
	}
	return s.repo.Storer.SetEncodedObject(obj)
}

// mutate loads the current notes tree, flattens it to a path->entry map,
// applies fn, rebuilds the tree, and commits it as a child of the previous
// notes commit. This mirrors the teacher's flatten/rebuild tree-surgery
// approach rather than mutating go-git's immutable Tree objects in place.
func (s *Store) mutate(ctx context.Context, message string, fn func(entries map[string]object.TreeEntry) error) error {
	tree, parentHash, err := s.headTree()
	if err != nil {
		return err
	}

	entries := map[string]object.TreeEntry{}
	if tree != nil {
		if err := tree.Files().ForEach(func(f *object.File) error {
			entries[f.Name] = object.TreeEntry{Name: f.Name, Mode: f.Mode, Hash: f.Hash}
			return nil
		}); err != nil {
			return fmt.Errorf("notesstore: enumerate existing notes: %w", err)
		}
	}

	if err := fn(entries); err != nil {
		return err
	}

	newTreeHash, err := buildTreeFromEntries(s.repo, entries)
	if err != nil {
		return fmt.Errorf("notesstore: build tree: %w", err)
	}

	var parents []plumbing.Hash
	if parentHash != plumbing.ZeroHash {
		parents = []plumbing.Hash{parentHash}
	}
	commitHash, err := createCommit(s.repo, newTreeHash, parents, message)
	if err != nil {
		return fmt.Errorf("notesstore: create notes commit: %w", err)
	}

	ref := plumbing.NewHashReference(s.refName, commitHash)
	if err := s.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("notesstore: update notes ref: %w", err)
	}
	_ = ctx
	return nil
}

func createCommit(repo *git.Repository, treeHash plumbing.Hash, parents []plumbing.Hash, message string) (plumbing.Hash, error) {
	sig := object.Signature{Name: "git-ai", Email: "git-ai@localhost", When: commitTime()}
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	}
	obj := repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("encode commit: %w", err)
	}
	return repo.Storer.SetEncodedObject(obj)
}

// commitTime is a seam so tests can observe determinism requirements
// without the package depending on wall-clock time at call sites.
var commitTime = time.Now

// treeNode mirrors the teacher's flatten/rebuild tree builder, adapted to
// operate over notesstore's fanout paths instead of working-tree paths.
type treeNode struct {
	children map[string]*treeNode
	files    []object.TreeEntry
}

func buildTreeFromEntries(repo *git.Repository, entries map[string]object.TreeEntry) (plumbing.Hash, error) {
	root := &treeNode{children: map[string]*treeNode{}}
	for fullPath, entry := range entries {
		insertIntoTree(root, strings.Split(fullPath, "/"), entry)
	}
	return buildTreeObject(repo, root)
}

func insertIntoTree(node *treeNode, parts []string, entry object.TreeEntry) {
	if len(parts) == 1 {
		node.files = append(node.files, object.TreeEntry{Name: parts[0], Mode: entry.Mode, Hash: entry.Hash})
		return
	}
	dir := parts[0]
	if node.children[dir] == nil {
		node.children[dir] = &treeNode{children: map[string]*treeNode{}}
	}
	insertIntoTree(node.children[dir], parts[1:], entry)
}

func buildTreeObject(repo *git.Repository, node *treeNode) (plumbing.Hash, error) {
	entries := append([]object.TreeEntry{}, node.files...)
	for name, child := range node.children {
		hash, err := buildTreeObject(repo, child)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: hash})
	}
	sortTreeEntries(entries)

	tree := &object.Tree{Entries: entries}
	obj := repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("encode tree: %w", err)
	}
	return repo.Storer.SetEncodedObject(obj)
}

func sortTreeEntries(entries []object.TreeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Name, entries[j].Name
		if entries[i].Mode == filemode.Dir {
			a += "/"
		}
		if entries[j].Mode == filemode.Dir {
			b += "/"
		}
		return a < b
	})
}
