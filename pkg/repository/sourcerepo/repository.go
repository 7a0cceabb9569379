// Package sourcerepo wires the storage engine for one repository: the
// object store, index, reference store, revision resolver, commit and
// branch managers and the garbage collector, all configured from the
// layered config.
package sourcerepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/commitmanager"
	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/config"
	"github.com/utkarsh5026/sourcevault/pkg/gc"
	"github.com/utkarsh5026/sourcevault/pkg/index"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
	"github.com/utkarsh5026/sourcevault/pkg/refs/branch"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/utkarsh5026/sourcevault/pkg/revision"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

// Repository is an opened repository. Every component is instance scoped,
// so several repositories can be open in one process.
//
// Layout under <root>/.source/:
//
//	objects/      loose objects (file backend)
//	objects.db    object database (bolt backend)
//	index         staging table
//	HEAD          symbolic or detached head
//	refs/heads/   branches
//	refs/tags/    tags
//	logs/         movement logs
//	config.json   repository configuration
type Repository struct {
	root     scpath.RepositoryPath
	cfg      *config.Manager
	objects  store.ObjectStore
	index    *index.Manager
	refs     *refs.Store
	resolver *revision.Resolver
	commits  *commitmanager.Manager
	branches *branch.Manager
	gc       *gc.Collector
	log      *slog.Logger
}

// Option configures how a repository is opened.
type Option func(*options)

type options struct {
	log       *slog.Logger
	now       func() time.Time
	metrics   *gc.Metrics
	configOpt []config.Option
	settings  [][2]string
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock replaces time.Now for commits, tags, logs and collection.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithGCMetrics records every collection in m.
func WithGCMetrics(m *gc.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithConfigOptions passes options to the config manager, for example to
// relocate the user and system files.
func WithConfigOptions(opts ...config.Option) Option {
	return func(o *options) { o.configOpt = append(o.configOpt, opts...) }
}

// WithSetting applies a command-line config override (-c key=value).
func WithSetting(key, value string) Option {
	return func(o *options) { o.settings = append(o.settings, [2]string{key, value}) }
}

// Exists reports whether path holds a .source directory.
func Exists(path scpath.RepositoryPath) (bool, error) {
	info, err := os.Stat(path.SourcePath().String())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, newStorageFault("exists", "failed to check .source directory", err)
	}
	return info.IsDir(), nil
}

// Init creates a repository at path. HEAD is attached to the unborn
// init.defaultbranch and the digest algorithm and object backend in effect
// are pinned in the repository config so later opens agree with them.
//
// Example:
//
//	repo, err := sourcerepo.Init(ctx, root, sourcerepo.WithSetting("core.digest", "sha256"))
func Init(ctx context.Context, path scpath.RepositoryPath, opts ...Option) (*Repository, error) {
	exists, err := Exists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, newAlreadyInitialized(path.String())
	}
	if err := os.MkdirAll(path.SourcePath().String(), 0755); err != nil {
		return nil, newStorageFault("init", "failed to create .source directory", err)
	}

	repo, err := open(ctx, path, opts)
	if err != nil {
		os.RemoveAll(path.SourcePath().String())
		return nil, err
	}

	tc := config.NewTypedConfig(repo.cfg)
	if err := repo.refs.Init(tc.DefaultBranch()); err != nil {
		repo.Close()
		return nil, err
	}
	pinned := map[string]string{
		config.KeyDigest:        repo.objects.Algorithm().Name(),
		config.KeyObjectBackend: tc.GetString(config.KeyObjectBackend),
	}
	for key, value := range pinned {
		if err := repo.cfg.Set(key, value, config.RepositoryLevel); err != nil {
			repo.Close()
			return nil, err
		}
	}

	repo.log.Info("initialized repository", "path", path.String(),
		"digest", repo.objects.Algorithm().Name(), "branch", tc.DefaultBranch())
	return repo, nil
}

// Open opens the repository rooted exactly at path.
func Open(ctx context.Context, path scpath.RepositoryPath, opts ...Option) (*Repository, error) {
	exists, err := Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, newNotARepository("open", path.String())
	}
	return open(ctx, path, opts)
}

// Find opens the nearest repository at or above start.
func Find(ctx context.Context, start string, opts ...Option) (*Repository, error) {
	root, err := Locate(start)
	if err != nil {
		return nil, err
	}
	return open(ctx, root, opts)
}

// Locate returns the nearest directory at or above start that holds a
// .source directory.
func Locate(start string) (scpath.RepositoryPath, error) {
	current, err := scpath.NewRepositoryPath(start)
	if err != nil {
		return "", newStorageFault("find", "failed to resolve path", err)
	}
	for {
		exists, err := Exists(current)
		if err != nil {
			return "", err
		}
		if exists {
			return current, nil
		}
		parent := filepath.Dir(current.String())
		if parent == current.String() {
			return "", newNotARepository("find", start)
		}
		current = scpath.RepositoryPath(parent)
	}
}

func open(ctx context.Context, path scpath.RepositoryPath, opts []Option) (*Repository, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.Component(o.log, "repository")

	cfg := config.NewManager(path, append([]config.Option{config.WithLogger(o.log)}, o.configOpt...)...)
	for _, kv := range o.settings {
		if err := cfg.SetCommandLine(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	if err := cfg.Load(ctx); err != nil {
		return nil, err
	}
	tc := config.NewTypedConfig(cfg)

	alg, err := tc.Digest()
	if err != nil {
		return nil, newInvalidConfig("open", err)
	}
	compression, err := tc.Compression()
	if err != nil {
		return nil, newInvalidConfig("open", err)
	}
	backend, err := tc.ObjectBackend()
	if err != nil {
		return nil, newInvalidConfig("open", err)
	}

	objectStore, err := store.Open(path, backend,
		store.WithAlgorithm(alg),
		store.WithCompression(compression),
		store.WithLogger(o.log),
	)
	if err != nil {
		return nil, err
	}

	name, email := tc.UserName(), tc.UserEmail()
	source := path.SourcePath()

	refStore := refs.NewStore(source,
		refs.WithAlgorithm(alg),
		refs.WithIdentity(name, email),
		refs.WithClock(o.now),
		refs.WithLogAllRefUpdates(tc.LogAllRefUpdates()),
		refs.WithLogger(o.log),
	)
	idx := index.NewManager(path, objectStore, index.WithLogger(o.log))
	resolver := revision.NewResolver(objectStore, refStore, o.log)

	gcOpts := []gc.Option{gc.WithLogger(o.log), gc.WithClock(o.now)}
	if o.metrics != nil {
		gcOpts = append(gcOpts, gc.WithMetrics(o.metrics))
	}

	repo := &Repository{
		root:     path,
		cfg:      cfg,
		objects:  objectStore,
		index:    idx,
		refs:     refStore,
		resolver: resolver,
		commits: commitmanager.NewManager(objectStore, idx, refStore,
			commitmanager.WithIdentity(name, email),
			commitmanager.WithClock(o.now),
			commitmanager.WithLogger(o.log),
		),
		branches: branch.NewManager(refStore, objectStore, resolver,
			branch.WithIdentity(name, email),
			branch.WithClock(o.now),
			branch.WithLogger(o.log),
		),
		gc:  gc.NewCollector(objectStore, refStore, idx, source, gcOpts...),
		log: log,
	}
	log.Debug("opened repository", "path", path.String(), "backend", string(backend), "digest", alg.Name())
	return repo, nil
}

// Close releases the object store.
func (r *Repository) Close() error {
	if err := r.objects.Close(); err != nil {
		return fmt.Errorf("close object store: %w", err)
	}
	return nil
}

// Root returns the working root.
func (r *Repository) Root() scpath.RepositoryPath { return r.root }

// SourceDir returns the .source directory.
func (r *Repository) SourceDir() scpath.SourcePath { return r.root.SourcePath() }

func (r *Repository) Objects() store.ObjectStore { return r.objects }
func (r *Repository) Index() *index.Manager { return r.index }
func (r *Repository) Refs() *refs.Store { return r.refs }
func (r *Repository) Resolver() *revision.Resolver { return r.resolver }
func (r *Repository) GC() *gc.Collector { return r.gc }
func (r *Repository) Commits() *commitmanager.Manager { return r.commits }
func (r *Repository) Branches() *branch.Manager { return r.branches }
func (r *Repository) Config() *config.Manager { return r.cfg }
func (r *Repository) TypedConfig() *config.TypedConfig { return config.NewTypedConfig(r.cfg) }

// GCPolicy builds a collection policy from gc.reflogexpire and
// gc.prunegrace.
func (r *Repository) GCPolicy() (gc.Policy, error) {
	tc := r.TypedConfig()
	expire, err := tc.ReflogExpire()
	if err != nil {
		return gc.Policy{}, newInvalidConfig("gc policy", err)
	}
	grace, err := tc.PruneGrace()
	if err != nil {
		return gc.Policy{}, newInvalidConfig("gc policy", err)
	}
	return gc.Policy{ReflogExpire: expire, PruneGrace: grace}, nil
}
