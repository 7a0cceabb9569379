package branch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
)

// InfoService provides branch information and metadata
type InfoService struct {
	rs *RefService
}

// NewInfoService creates a new branch info service
func NewInfoService(refSvc *RefService) *InfoService {
	return &InfoService{rs: refSvc}
}

// GetInfo retrieves detailed information about a specific branch,
// including how many commits its tip reaches.
func (is *InfoService) GetInfo(ctx context.Context, name string) (*BranchInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	tip, err := is.rs.Tip(name)
	if err != nil {
		return nil, err
	}

	currentBranch, err := is.rs.Current()
	if err != nil {
		return nil, err
	}

	info := &BranchInfo{
		Name:            name,
		Hash:            tip,
		IsCurrentBranch: name == currentBranch,
	}

	if err := is.enrichWithCommitInfo(ctx, info); err != nil {
		return nil, fmt.Errorf("enrich branch info: %w", err)
	}
	return info, nil
}

// ListAll returns every branch sorted by name, with the current one marked.
func (is *InfoService) ListAll(ctx context.Context) ([]BranchInfo, error) {
	list, err := is.rs.refs.List(refs.HeadsPrefix)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}

	currentBranch, err := is.rs.Current()
	if err != nil {
		return nil, err
	}

	branches := make([]BranchInfo, 0, len(list))
	for _, r := range list {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		name := refs.ShortName(r.Name)
		info := BranchInfo{
			Name:            name,
			Hash:            r.Target,
			IsCurrentBranch: name == currentBranch,
		}
		if c, err := is.rs.walker.Commit(r.Target); err == nil {
			info.LastCommitSubject = c.Subject()
			info.LastCommitDate = c.Committer.When
		}
		branches = append(branches, info)
	}
	return branches, nil
}

// enrichWithCommitInfo adds commit-related information to branch info
func (is *InfoService) enrichWithCommitInfo(ctx context.Context, info *BranchInfo) error {
	c, err := is.rs.walker.Commit(info.Hash)
	if err != nil {
		return fmt.Errorf("read commit: %w", err)
	}
	info.LastCommitSubject = c.Subject()
	info.LastCommitDate = c.Committer.When

	reachable, err := is.rs.walker.Ancestors(ctx, info.Hash)
	if err != nil {
		return err
	}
	info.CommitCount = len(reachable)
	return nil
}

// CompareWithBase counts the commits branchName has that baseName lacks
// (ahead) and the reverse (behind).
func (is *InfoService) CompareWithBase(ctx context.Context, branchName, baseName string) (ahead, behind int, err error) {
	branchTip, err := is.rs.Tip(branchName)
	if err != nil {
		return 0, 0, err
	}
	baseTip, err := is.rs.Tip(baseName)
	if err != nil {
		return 0, 0, err
	}
	if branchTip == baseTip {
		return 0, 0, nil
	}

	var ours, theirs map[objects.ObjectHash]struct{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		set, err := is.reach(gctx, branchTip)
		ours = set
		return err
	})
	g.Go(func() error {
		set, err := is.reach(gctx, baseTip)
		theirs = set
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	for h := range ours {
		if _, ok := theirs[h]; !ok {
			ahead++
		}
	}
	for h := range theirs {
		if _, ok := ours[h]; !ok {
			behind++
		}
	}
	return ahead, behind, nil
}

func (is *InfoService) reach(ctx context.Context, tip objects.ObjectHash) (map[objects.ObjectHash]struct{}, error) {
	set, err := is.rs.walker.Ancestors(ctx, tip)
	if err != nil {
		return nil, err
	}
	out := make(map[objects.ObjectHash]struct{}, len(set))
	for h := range set {
		out[h] = struct{}{}
	}
	return out, nil
}
