// Package graph walks the commit graph stored in an object store.
package graph

import (
	"container/heap"
	"context"
	"sort"
	"sync"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tag"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

// maxPeelDepth bounds tag-to-tag chains.
const maxPeelDepth = 32

// Walker reads commits and tags from a store and caches parsed commits.
// It is safe for concurrent use.
type Walker struct {
	objects store.ObjectStore

	mu      sync.RWMutex
	commits map[objects.ObjectHash]*commit.Commit
}

// NewWalker creates a walker over objectStore.
func NewWalker(objectStore store.ObjectStore) *Walker {
	return &Walker{
		objects: objectStore,
		commits: make(map[objects.ObjectHash]*commit.Commit),
	}
}

// Commit loads and parses the commit hash.
func (w *Walker) Commit(hash objects.ObjectHash) (*commit.Commit, error) {
	w.mu.RLock()
	c, ok := w.commits[hash]
	w.mu.RUnlock()
	if ok {
		return c, nil
	}

	kind, data, err := w.objects.Get(hash)
	if err != nil {
		return nil, wrap("commit", err)
	}
	if kind != objects.CommitType {
		return nil, newWrongKind("commit", hash, objects.CommitType, kind)
	}
	c, err = commit.Parse(data)
	if err != nil {
		return nil, newCorrupt("commit", hash, err)
	}

	w.mu.Lock()
	w.commits[hash] = c
	w.mu.Unlock()
	return c, nil
}

// Tag loads and parses the annotated tag hash.
func (w *Walker) Tag(hash objects.ObjectHash) (*tag.Tag, error) {
	kind, data, err := w.objects.Get(hash)
	if err != nil {
		return nil, wrap("tag", err)
	}
	if kind != objects.TagType {
		return nil, newWrongKind("tag", hash, objects.TagType, kind)
	}
	t, err := tag.Parse(data)
	if err != nil {
		return nil, newCorrupt("tag", hash, err)
	}
	return t, nil
}

// Peel follows annotated tags until it reaches a non-tag object and
// returns that object's digest and kind.
func (w *Walker) Peel(hash objects.ObjectHash) (objects.ObjectHash, objects.ObjectType, error) {
	for range maxPeelDepth {
		kind, err := w.objects.TypeOf(hash)
		if err != nil {
			return "", "", wrap("peel", err)
		}
		if kind != objects.TagType {
			return hash, kind, nil
		}
		t, err := w.Tag(hash)
		if err != nil {
			return "", "", err
		}
		hash = t.Object
	}
	return "", "", newCorrupt("peel", hash, errTagChain)
}

// PeelToCommit peels hash and requires the result to be a commit.
func (w *Walker) PeelToCommit(hash objects.ObjectHash) (objects.ObjectHash, error) {
	peeled, kind, err := w.Peel(hash)
	if err != nil {
		return "", err
	}
	if kind != objects.CommitType {
		return "", newWrongKind("peel", hash, objects.CommitType, kind)
	}
	return peeled, nil
}

// Parents returns the ordered parent list of a commit.
func (w *Walker) Parents(hash objects.ObjectHash) ([]objects.ObjectHash, error) {
	c, err := w.Commit(hash)
	if err != nil {
		return nil, err
	}
	return c.Parents, nil
}

// Ancestors returns every commit reachable from starts over all parents,
// starts included. Tags among starts are peeled first.
func (w *Walker) Ancestors(ctx context.Context, starts ...objects.ObjectHash) (map[objects.ObjectHash]*commit.Commit, error) {
	seen := make(map[objects.ObjectHash]*commit.Commit)
	stack := make([]objects.ObjectHash, 0, len(starts))
	for _, s := range starts {
		peeled, err := w.PeelToCommit(s)
		if err != nil {
			return nil, err
		}
		stack = append(stack, peeled)
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hash := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[hash]; ok {
			continue
		}

		c, err := w.Commit(hash)
		if err != nil {
			return nil, err
		}
		seen[hash] = c
		for _, p := range c.Parents {
			if _, ok := seen[p]; !ok {
				stack = append(stack, p)
			}
		}
	}
	return seen, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (w *Walker) IsAncestor(ctx context.Context, ancestor, descendant objects.ObjectHash) (bool, error) {
	set, err := w.Ancestors(ctx, descendant)
	if err != nil {
		return false, err
	}
	_, ok := set[ancestor]
	return ok, nil
}

// FirstParent steps n first-parent links from hash. ok is false when the
// chain ends before n steps.
func (w *Walker) FirstParent(hash objects.ObjectHash, n int) (objects.ObjectHash, bool, error) {
	for range n {
		c, err := w.Commit(hash)
		if err != nil {
			return "", false, err
		}
		if len(c.Parents) == 0 {
			return "", false, nil
		}
		hash = c.Parents[0]
	}
	return hash, true, nil
}

// Order sorts a commit set newest committer time first, ties broken by
// digest.
func Order(set map[objects.ObjectHash]*commit.Commit) []objects.ObjectHash {
	out := make([]objects.ObjectHash, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i], set[out[i]], out[j], set[out[j]])
	})
	return out
}

func newer(a objects.ObjectHash, ca *commit.Commit, b objects.ObjectHash, cb *commit.Commit) bool {
	ta, tb := ca.Committer.When.Unix(), cb.Committer.When.Unix()
	if ta != tb {
		return ta > tb
	}
	return a < b
}

// LogEntry is one step of History.
type LogEntry struct {
	Hash   objects.ObjectHash
	Commit *commit.Commit
}

// History lists commits reachable from start, newest committer time first.
// A limit of zero or less means no limit.
func (w *Walker) History(ctx context.Context, start objects.ObjectHash, limit int) ([]LogEntry, error) {
	start, err := w.PeelToCommit(start)
	if err != nil {
		return nil, err
	}
	first, err := w.Commit(start)
	if err != nil {
		return nil, err
	}

	queue := &commitQueue{{Hash: start, Commit: first}}
	seen := map[objects.ObjectHash]bool{start: true}
	var out []LogEntry

	for queue.Len() > 0 && (limit <= 0 || len(out) < limit) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := heap.Pop(queue).(LogEntry)
		out = append(out, next)

		for _, p := range next.Commit.Parents {
			if seen[p] {
				continue
			}
			seen[p] = true
			pc, err := w.Commit(p)
			if err != nil {
				return nil, err
			}
			heap.Push(queue, LogEntry{Hash: p, Commit: pc})
		}
	}
	return out, nil
}

// commitQueue is a max-heap on committer time.
type commitQueue []LogEntry

func (q commitQueue) Len() int { return len(q) }
func (q commitQueue) Less(i, j int) bool {
	return newer(q[i].Hash, q[i].Commit, q[j].Hash, q[j].Commit)
}
func (q commitQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *commitQueue) Push(x any)   { *q = append(*q, x.(LogEntry)) }
func (q *commitQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
