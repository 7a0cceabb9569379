// Package gc finds the objects still reachable from references, movement
// logs and the index, and deletes the rest.
package gc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/sourcevault/pkg/common/fileops"
	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/index"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tag"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tree"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

const (
	// DefaultReflogExpire matches gc.reflogexpire's builtin value of 90 days.
	DefaultReflogExpire = 90 * 24 * time.Hour

	// DefaultPruneGrace matches gc.prunegrace's builtin value.
	DefaultPruneGrace = 2 * time.Hour
)

// Policy controls one collection run.
type Policy struct {
	// ReflogExpire drops movement-log entries older than this. Zero keeps
	// every entry.
	ReflogExpire time.Duration

	// PruneGrace protects unreachable objects written within this window,
	// so objects a concurrent writer has stored but not yet referenced
	// survive.
	PruneGrace time.Duration

	// DryRun computes the report without touching logs or objects.
	DryRun bool
}

// DefaultPolicy returns the builtin expiry and grace windows.
func DefaultPolicy() Policy {
	return Policy{ReflogExpire: DefaultReflogExpire, PruneGrace: DefaultPruneGrace}
}

// Report summarises a collection run.
type Report struct {
	RunID             string
	DryRun            bool
	Removed           int
	BytesReclaimed    int64
	Kept              int
	Skipped           int
	ExpiredLogEntries int
	Duration          time.Duration
}

// Collector marks and sweeps one repository's object store.
type Collector struct {
	objects     store.ObjectStore
	refs        *refs.Store
	index       *index.Manager
	lockPath    string
	lockTimeout time.Duration
	now         func() time.Time
	metrics     *Metrics
	log         *slog.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) { c.log = logger.Component(l, "gc") }
}

// WithClock replaces time.Now for expiry and grace decisions.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithMetrics records every run in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

// WithLockTimeout bounds the wait for gc.lock.
func WithLockTimeout(d time.Duration) Option {
	return func(c *Collector) { c.lockTimeout = d }
}

// NewCollector creates a collector. idx may be nil when the repository
// has no index to protect.
func NewCollector(objectStore store.ObjectStore, refStore *refs.Store, idx *index.Manager, source scpath.SourcePath, opts ...Option) *Collector {
	c := &Collector{
		objects:     objectStore,
		refs:        refStore,
		index:       idx,
		lockPath:    strings.TrimSuffix(source.GCLockPath().String(), scpath.LockSuffix),
		lockTimeout: fileops.DefaultLockTimeout,
		now:         time.Now,
		log:         logger.Component(nil, "gc"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MarkReachable returns every object reachable from the current roots.
func (c *Collector) MarkReachable(ctx context.Context) (map[objects.ObjectHash]struct{}, error) {
	return c.mark(ctx, time.Time{})
}

// Collect expires old movement-log entries, then deletes every object that
// is unreachable and older than the grace window.
func (c *Collector) Collect(ctx context.Context, policy Policy) (Report, error) {
	if policy.ReflogExpire < 0 || policy.PruneGrace < 0 {
		return Report{}, newInvalidPolicy("durations must not be negative")
	}

	start := c.now()
	report := Report{RunID: uuid.New().String(), DryRun: policy.DryRun}
	log := c.log.With("run", report.RunID)

	if !policy.DryRun {
		lock, err := fileops.AcquireLock(c.lockPath, c.lockTimeout)
		if err != nil {
			c.metrics.observe(report, 0, true)
			return report, err
		}
		defer lock.Release()
	}

	var cutoff time.Time
	if policy.ReflogExpire > 0 {
		cutoff = start.Add(-policy.ReflogExpire)
	}

	expired, err := c.expireLogs(cutoff, policy.DryRun)
	if err != nil {
		c.metrics.observe(report, 0, true)
		return report, err
	}
	report.ExpiredLogEntries = expired

	reachable, err := c.mark(ctx, cutoff)
	if err != nil {
		c.metrics.observe(report, 0, true)
		return report, err
	}

	graceStart := start.Add(-policy.PruneGrace)
	err = c.objects.Walk(func(info store.ObjectInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := reachable[info.Hash]; ok {
			report.Kept++
			return nil
		}
		if info.ModTime.After(graceStart) {
			report.Skipped++
			return nil
		}
		if policy.DryRun {
			report.Removed++
			report.BytesReclaimed += info.Size
			return nil
		}

		size, err := c.objects.Delete(info.Hash)
		if err != nil {
			if store.IsObjectNotFound(err) {
				return nil
			}
			return err
		}
		report.Removed++
		report.BytesReclaimed += size
		log.Debug("pruned object", "hash", info.Hash.Short(), "bytes", size)
		return nil
	})
	if err != nil {
		c.metrics.observe(report, 0, true)
		return report, err
	}

	report.Duration = c.now().Sub(start)
	c.metrics.observe(report, report.Duration.Seconds(), false)
	log.Info("collection finished",
		"dry_run", report.DryRun,
		"removed", report.Removed,
		"bytes", report.BytesReclaimed,
		"kept", report.Kept,
		"skipped", report.Skipped,
		"expired_log_entries", report.ExpiredLogEntries)
	return report, nil
}

// expireLogs drops log entries recorded before cutoff from every log. In
// dry-run mode it only counts them.
func (c *Collector) expireLogs(cutoff time.Time, dryRun bool) (int, error) {
	if cutoff.IsZero() {
		return 0, nil
	}
	names, err := c.refs.ListLogs()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, name := range names {
		if dryRun {
			l, err := c.refs.LogOf(name)
			if err != nil {
				return total, err
			}
			for _, e := range l.All() {
				if e.Actor.When.Before(cutoff) {
					total++
				}
			}
			continue
		}

		n, err := c.refs.ExpireLog(name, cutoff)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// mark gathers the roots and walks the object graph from them. Log
// entries recorded before cutoff are not roots.
func (c *Collector) mark(ctx context.Context, cutoff time.Time) (map[objects.ObjectHash]struct{}, error) {
	roots, err := c.roots(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	reachable := make(map[objects.ObjectHash]struct{}, len(roots))
	pending := make([]objects.ObjectHash, 0, len(roots))
	for h := range roots {
		pending = append(pending, h)
	}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if _, seen := reachable[h]; seen {
			continue
		}

		children, ok, err := c.children(h)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		reachable[h] = struct{}{}
		for _, child := range children {
			if _, seen := reachable[child]; !seen {
				pending = append(pending, child)
			}
		}
	}

	c.log.Debug("marked reachable objects", "roots", len(roots), "reachable", len(reachable))
	return reachable, nil
}

// children returns the objects h points at. ok is false when h is not in
// the store.
func (c *Collector) children(h objects.ObjectHash) ([]objects.ObjectHash, bool, error) {
	kind, data, err := c.objects.Get(h)
	if err != nil {
		if store.IsObjectNotFound(err) {
			c.log.Warn("root or link points at a missing object", "hash", h.Short())
			return nil, false, nil
		}
		return nil, false, err
	}

	switch kind {
	case objects.CommitType:
		cm, err := commit.Parse(data)
		if err != nil {
			return nil, false, err
		}
		return append([]objects.ObjectHash{cm.Tree}, cm.Parents...), true, nil
	case objects.TreeType:
		t, err := tree.Parse(data, c.objects.Algorithm())
		if err != nil {
			return nil, false, err
		}
		out := make([]objects.ObjectHash, 0, len(t.Entries()))
		for _, e := range t.Entries() {
			if e.Mode.Type() == objects.FileModeTypeGitlink {
				continue
			}
			out = append(out, e.Hash)
		}
		return out, true, nil
	case objects.TagType:
		tg, err := tag.Parse(data)
		if err != nil {
			return nil, false, err
		}
		return []objects.ObjectHash{tg.Object}, true, nil
	default:
		return nil, true, nil
	}
}

// roots collects ref targets, HEAD, movement-log values and index
// entries concurrently.
func (c *Collector) roots(ctx context.Context, cutoff time.Time) (map[objects.ObjectHash]struct{}, error) {
	var (
		mu  sync.Mutex
		out = make(map[objects.ObjectHash]struct{})
	)
	add := func(hashes ...objects.ObjectHash) {
		mu.Lock()
		defer mu.Unlock()
		for _, h := range hashes {
			if !h.IsZero() {
				out[h] = struct{}{}
			}
		}
	}

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		list, err := c.refs.List(refs.RefsPrefix)
		if err != nil {
			return err
		}
		for _, r := range list {
			if !r.IsSymbolic() {
				add(r.Target)
			}
		}
		return nil
	})

	g.Go(func() error {
		head, err := c.refs.Head()
		if err != nil {
			return err
		}
		add(head.Commit)
		return nil
	})

	g.Go(func() error {
		names, err := c.refs.ListLogs()
		if err != nil {
			return err
		}
		for _, name := range names {
			l, err := c.refs.LogOf(name)
			if err != nil {
				return err
			}
			for _, e := range l.All() {
				if !cutoff.IsZero() && e.Actor.When.Before(cutoff) {
					continue
				}
				add(e.Old, e.New)
			}
		}
		return nil
	})

	if c.index != nil {
		g.Go(func() error {
			entries, err := c.index.Entries()
			if err != nil {
				return err
			}
			for _, e := range entries {
				add(e.Hash)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("gather roots: %w", err)
	}
	return out, nil
}
