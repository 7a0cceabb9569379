package commitmanager

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/sourcevault/pkg/index"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tree"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

const (
	// concurrencyThreshold is the minimum number of subdirectories
	// required before subtrees are built in parallel.
	concurrencyThreshold = 3
)

// TreeBuilder builds tree objects from a stage-0 index snapshot.
//
// It converts a flat list of file paths into a hierarchical tree structure
// that mirrors the directory layout. For example:
//   - src/main.go
//   - src/utils/helper.go
//   - README.md
//
// Becomes:
//
//	root/
//	  ├── README.md (blob)
//	  └── src/ (tree)
//	      ├── main.go (blob)
//	      └── utils/ (tree)
//	          └── helper.go (blob)
//
// The result depends only on the set of entries, never on their order.
type TreeBuilder struct {
	objects store.ObjectStore
}

// NewTreeBuilder creates a new TreeBuilder writing into objectStore
func NewTreeBuilder(objectStore store.ObjectStore) *TreeBuilder {
	return &TreeBuilder{objects: objectStore}
}

// Build writes every tree needed for entries and returns the root digest.
// Entries must be stage 0; an empty snapshot yields the empty tree.
func (tb *TreeBuilder) Build(ctx context.Context, entries []*index.Entry) (objects.ObjectHash, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	root := newDirectoryNode("")
	for _, e := range entries {
		if e.Stage != index.StageNormal {
			return "", fmt.Errorf("entry %s is at %s, only stage 0 can be committed", e.Path, e.Stage)
		}
		if err := root.addEntry(e.Path, e.Hash, e.Mode); err != nil {
			return "", err
		}
	}

	hash, err := tb.buildTree(ctx, root)
	if err != nil {
		return "", fmt.Errorf("build tree: %w", err)
	}
	return hash, nil
}

// buildTree writes node's subtrees first, then node itself.
func (tb *TreeBuilder) buildTree(ctx context.Context, node *directoryNode) (objects.ObjectHash, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entries := make([]*tree.TreeEntry, 0, len(node.files)+len(node.subdirs))
	for name, f := range node.files {
		entry, err := tree.NewTreeEntry(f.mode, name, f.hash)
		if err != nil {
			return "", fmt.Errorf("create tree entry for file %s: %w", name, err)
		}
		entries = append(entries, entry)
	}

	subdirEntries, err := tb.buildSubdirectoryEntries(ctx, node)
	if err != nil {
		return "", err
	}
	entries = append(entries, subdirEntries...)

	t, err := tree.NewTree(entries)
	if err != nil {
		return "", fmt.Errorf("assemble tree %q: %w", node.name, err)
	}
	hash, err := store.PutObject(tb.objects, t)
	if err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}
	return hash, nil
}

// buildSubdirectoryEntries builds one entry per child directory, in
// parallel once there are enough children to be worth it.
func (tb *TreeBuilder) buildSubdirectoryEntries(ctx context.Context, node *directoryNode) ([]*tree.TreeEntry, error) {
	if len(node.subdirs) == 0 {
		return nil, nil
	}

	if len(node.subdirs) < concurrencyThreshold {
		entries := make([]*tree.TreeEntry, 0, len(node.subdirs))
		for name, subdir := range node.subdirs {
			entry, err := tb.buildSubdirectoryEntry(ctx, name, subdir)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
		return entries, nil
	}

	var (
		mu      sync.Mutex
		entries = make([]*tree.TreeEntry, 0, len(node.subdirs))
	)
	g, gctx := errgroup.WithContext(ctx)
	for name, subdir := range node.subdirs {
		g.Go(func() error {
			entry, err := tb.buildSubdirectoryEntry(gctx, name, subdir)
			if err != nil {
				return err
			}
			mu.Lock()
			entries = append(entries, entry)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (tb *TreeBuilder) buildSubdirectoryEntry(ctx context.Context, name string, subdir *directoryNode) (*tree.TreeEntry, error) {
	subTree, err := tb.buildTree(ctx, subdir)
	if err != nil {
		return nil, fmt.Errorf("build subdirectory %s: %w", name, err)
	}

	entry, err := tree.NewTreeEntry(objects.FileModeDirectory, name, subTree)
	if err != nil {
		return nil, fmt.Errorf("create tree entry for directory %s: %w", name, err)
	}
	return entry, nil
}
