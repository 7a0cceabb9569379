package branch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tag"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

// Tagger creates, lists and deletes tags under refs/tags/.
type Tagger struct {
	refService *RefService
	objects    store.ObjectStore
	identity   func() (*commit.Person, error)
}

// NewTagger creates a tag service. identity supplies the tagger line of
// annotated tags.
func NewTagger(refSvc *RefService, objectStore store.ObjectStore, identity func() (*commit.Person, error)) *Tagger {
	return &Tagger{refService: refSvc, objects: objectStore, identity: identity}
}

// Create points refs/tags/<name> at the target. With a message the ref
// holds a new annotated tag object; without one it holds the target itself.
func (t *Tagger) Create(ctx context.Context, name string, config *TagConfig) (*TagInfo, error) {
	full, err := tagRef(name)
	if err != nil {
		return nil, err
	}

	rev := config.Target
	if rev == "" {
		rev = refs.Head
	}
	res, err := t.refService.resolver.Resolve(ctx, rev)
	if err != nil {
		return nil, fmt.Errorf("resolve '%s': %w", rev, err)
	}
	target, ok := res.Hash()
	if !ok {
		return nil, NewInvalidNameError(rev, "a tag needs a single target, not a range")
	}

	refStore := t.refService.refs
	existing, readErr := refStore.Read(full)
	if readErr == nil && !config.Force {
		return nil, NewAlreadyExistsError(name)
	}
	if readErr != nil && !refs.IsNoSuchRef(readErr) {
		return nil, readErr
	}

	info := &TagInfo{Name: name, Hash: target, Target: target}
	if config.Message != "" {
		kind, err := t.objects.TypeOf(target)
		if err != nil {
			return nil, err
		}
		who, err := t.identity()
		if err != nil {
			return nil, err
		}
		annotated, err := tag.New(target, kind, name, who, ensureNewline(config.Message))
		if err != nil {
			return nil, err
		}
		hash, err := store.PutObject(t.objects, annotated)
		if err != nil {
			return nil, err
		}
		info.Hash = hash
		info.Annotated = true
		info.Message = annotated.Message
	}

	reason := "tag: " + name
	if readErr == nil {
		err = refStore.Update(full, info.Hash, existing.Target, reason)
	} else {
		err = refStore.Create(full, info.Hash, reason)
	}
	if err != nil {
		return nil, fmt.Errorf("write tag: %w", err)
	}
	return info, nil
}

// Delete removes refs/tags/<name>.
func (t *Tagger) Delete(name string) error {
	full, err := tagRef(name)
	if err != nil {
		return err
	}
	if err := t.refService.refs.Delete(full, "tag: deleted "+name); err != nil {
		if refs.IsNoSuchRef(err) {
			return NewNotFoundError(name)
		}
		return err
	}
	return nil
}

// List returns every tag sorted by name, with annotated tags peeled.
func (t *Tagger) List() ([]TagInfo, error) {
	list, err := t.refService.refs.List(refs.TagsPrefix)
	if err != nil {
		return nil, err
	}

	out := make([]TagInfo, 0, len(list))
	for _, r := range list {
		info := TagInfo{Name: refs.ShortName(r.Name), Hash: r.Target, Target: r.Target}
		if kind, err := t.objects.TypeOf(r.Target); err == nil && kind == objects.TagType {
			if tg, err := t.refService.walker.Tag(r.Target); err == nil {
				info.Annotated = true
				info.Message = tg.Message
			}
			if peeled, _, err := t.refService.walker.Peel(r.Target); err == nil {
				info.Target = peeled
			}
		}
		out = append(out, info)
	}
	return out, nil
}

func ensureNewline(msg string) string {
	if strings.HasSuffix(msg, "\n") {
		return msg
	}
	return msg + "\n"
}

// defaultIdentity builds a tagger identity from a name, email and clock.
func defaultIdentity(name, email string, now func() time.Time) func() (*commit.Person, error) {
	return func() (*commit.Person, error) {
		return commit.NewPerson(name, email, now())
	}
}
