// Package revision turns revision text ("main~2", "HEAD@{1}", "a..b",
// "^x y") into commits.
package revision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/graph"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

// Result is either one digest or an ordered set of commits.
type Result struct {
	hash  objects.ObjectHash
	set   []objects.ObjectHash
	isSet bool
}

// IsSet reports whether the text denoted a set (a range or exclusion list).
func (r Result) IsSet() bool {
	return r.isSet
}

// Hash returns the single digest; ok is false for sets.
func (r Result) Hash() (objects.ObjectHash, bool) {
	return r.hash, !r.isSet
}

// Hashes returns the set, newest committer time first with ties broken by
// digest, or the single digest as a one-element slice.
func (r Result) Hashes() []objects.ObjectHash {
	if !r.isSet {
		return []objects.ObjectHash{r.hash}
	}
	out := make([]objects.ObjectHash, len(r.set))
	copy(out, r.set)
	return out
}

// Resolver evaluates revision text against an object store and ref store.
type Resolver struct {
	objects store.ObjectStore
	refs    *refs.Store
	walker  *graph.Walker
	log     *slog.Logger
}

// NewResolver creates a resolver. log may be nil.
func NewResolver(objectStore store.ObjectStore, refStore *refs.Store, log *slog.Logger) *Resolver {
	return &Resolver{
		objects: objectStore,
		refs:    refStore,
		walker:  graph.NewWalker(objectStore),
		log:     logger.Component(log, "revision"),
	}
}

// Resolve evaluates text.
//
// Single forms: a ref name, a full or short digest (at least 4 hex
// characters), NAME@{N}, @{N}, @, followed by any chain of ~N, ^N and
// ^{type}. Set forms: A..B, A...B and lists such as "^A B C".
func (r *Resolver) Resolve(ctx context.Context, text string) (Result, error) {
	q, err := parseQuery(text)
	if err != nil {
		return Result{}, err
	}

	if !q.isSet {
		hash, err := r.eval(q.include[0])
		if err != nil {
			return Result{}, err
		}
		return Result{hash: hash}, nil
	}

	set, err := r.evalSet(ctx, q)
	if err != nil {
		return Result{}, err
	}
	r.log.Debug("resolved revision set", "revision", text, "commits", len(set))
	return Result{set: graph.Order(set), isSet: true}, nil
}

// ResolveCommit resolves text to a single commit, peeling tags.
func (r *Resolver) ResolveCommit(ctx context.Context, text string) (objects.ObjectHash, error) {
	res, err := r.Resolve(ctx, text)
	if err != nil {
		return "", err
	}
	hash, ok := res.Hash()
	if !ok {
		return "", newSyntaxError(text, "expected a single revision, got a range")
	}
	return r.walker.PeelToCommit(hash)
}

func (r *Resolver) evalSet(ctx context.Context, q query) (map[objects.ObjectHash]*commit.Commit, error) {
	reach := func(exprs []expr) (map[objects.ObjectHash]*commit.Commit, error) {
		starts := make([]objects.ObjectHash, 0, len(exprs))
		for _, e := range exprs {
			h, err := r.eval(e)
			if err != nil {
				return nil, err
			}
			starts = append(starts, h)
		}
		return r.walker.Ancestors(ctx, starts...)
	}

	if q.symmetric {
		left, err := reach(q.include[:1])
		if err != nil {
			return nil, err
		}
		right, err := reach(q.include[1:])
		if err != nil {
			return nil, err
		}
		out := make(map[objects.ObjectHash]*commit.Commit)
		for h, c := range left {
			if _, shared := right[h]; !shared {
				out[h] = c
			}
		}
		for h, c := range right {
			if _, shared := left[h]; !shared {
				out[h] = c
			}
		}
		return out, nil
	}

	included, err := reach(q.include)
	if err != nil {
		return nil, err
	}
	excluded, err := reach(q.exclude)
	if err != nil {
		return nil, err
	}
	for h := range excluded {
		delete(included, h)
	}
	return included, nil
}

// eval resolves one expression to a digest.
func (r *Resolver) eval(e expr) (objects.ObjectHash, error) {
	hash, err := r.resolveBase(e)
	if err != nil {
		return "", err
	}

	for _, s := range e.steps {
		switch s.kind {
		case stepAncestor:
			hash, err = r.ancestor(e.text, hash, s.n)
		case stepParent:
			hash, err = r.parent(e.text, hash, s.n)
		case stepPeel:
			hash, err = r.peel(e.text, hash, s.peel)
		}
		if err != nil {
			return "", err
		}
	}
	return hash, nil
}

func (r *Resolver) ancestor(text string, hash objects.ObjectHash, n int) (objects.ObjectHash, error) {
	start, err := r.walker.PeelToCommit(hash)
	if err != nil {
		return "", err
	}
	out, ok, err := r.walker.FirstParent(start, n)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", newNoSuchParent(text, n)
	}
	return out, nil
}

func (r *Resolver) parent(text string, hash objects.ObjectHash, n int) (objects.ObjectHash, error) {
	start, err := r.walker.PeelToCommit(hash)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return start, nil
	}
	parents, err := r.walker.Parents(start)
	if err != nil {
		return "", err
	}
	if n > len(parents) {
		return "", newNoSuchParent(text, n)
	}
	return parents[n-1], nil
}

func (r *Resolver) peel(text string, hash objects.ObjectHash, target string) (objects.ObjectHash, error) {
	switch target {
	case "":
		peeled, _, err := r.walker.Peel(hash)
		return peeled, err
	case "commit":
		return r.walker.PeelToCommit(hash)
	case "tag":
		if _, err := r.walker.Tag(hash); err != nil {
			return "", err
		}
		return hash, nil
	case "tree", "blob":
		peeled, kind, err := r.walker.Peel(hash)
		if err != nil {
			return "", err
		}
		if target == "tree" && kind == objects.CommitType {
			c, err := r.walker.Commit(peeled)
			if err != nil {
				return "", err
			}
			return c.Tree, nil
		}
		if kind.String() != target {
			return "", newNoSuchRevision(text, fmt.Errorf("%s is a %s", peeled.Short(), kind))
		}
		return peeled, nil
	default:
		return "", newSyntaxError(text, fmt.Sprintf("unknown object type %q", target))
	}
}

// resolveBase resolves the name part: a movement-log lookup, a ref, or a
// digest prefix, in that order.
func (r *Resolver) resolveBase(e expr) (objects.ObjectHash, error) {
	if e.reflog >= 0 {
		return r.fromLog(e)
	}

	hash, err := r.refs.Resolve(e.base)
	if err == nil {
		return hash, nil
	}
	if !refs.IsNoSuchRef(err) {
		if refs.IsUnbornRef(err) {
			return "", newNoSuchRevision(e.text, err)
		}
		return "", err
	}

	if objects.LooksLikePrefix(e.base) {
		return r.fromPrefix(e)
	}
	return "", newNoSuchRevision(e.text, nil)
}

// fromLog returns the value NAME held N movements ago; @{0} is the most
// recent value written.
func (r *Resolver) fromLog(e expr) (objects.ObjectHash, error) {
	name, err := r.refs.Expand(e.base)
	if err != nil {
		return "", newNoSuchRevision(e.text, err)
	}
	log, err := r.refs.LogOf(name)
	if err != nil {
		return "", err
	}
	entry, ok := log.At(e.reflog)
	if !ok {
		return "", newNoSuchRevision(e.text,
			fmt.Errorf("log of %s has only %d entries", name, log.Len()))
	}
	if entry.New.IsZero() {
		return "", newNoSuchRevision(e.text, fmt.Errorf("%s was deleted at that point", name))
	}
	return entry.New, nil
}

func (r *Resolver) fromPrefix(e expr) (objects.ObjectHash, error) {
	prefix := strings.ToLower(e.base)
	size := r.objects.Algorithm().HexSize()
	if len(prefix) > size {
		return "", newNoSuchRevision(e.text,
			fmt.Errorf("%d hex digits exceed the %d of a %s digest", len(prefix), size, r.objects.Algorithm()))
	}
	if len(prefix) == size {
		full := objects.ObjectHash(prefix)
		if r.objects.Exists(full) {
			return full, nil
		}
		return "", newNoSuchRevision(e.text, nil)
	}

	matches, err := r.objects.FindByPrefix(prefix)
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", newNoSuchRevision(e.text, nil)
	case 1:
		return matches[0], nil
	default:
		return "", NewAmbiguousRevisionError(prefix, matches)
	}
}
