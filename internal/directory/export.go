package directory

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"auditctl/internal/api"
)

// Lister fetches directory objects from the audit service.
type Lister interface {
	ListUsers(ctx context.Context, orgID string) (*api.UserPage, error)
	ListGroups(ctx context.Context, orgID string) (*api.GroupPage, error)
}

// ExportResult counts what was written per kind.
type ExportResult struct {
	Counts map[Kind]int
	Paths  map[Kind]string
}

// Export fetches the requested kinds concurrently and writes them to store.
// Nothing is written unless every fetch succeeds.
func Export(ctx context.Context, lister Lister, store *Store, orgID string, kinds ...Kind) (*ExportResult, error) {
	if len(kinds) == 0 {
		return nil, fmt.Errorf("nothing to export")
	}
	for _, kind := range kinds {
		if _, err := ParseKind(string(kind)); err != nil {
			return nil, err
		}
	}

	var users *api.UserPage
	var groups *api.GroupPage

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range kinds {
		switch kind {
		case KindUsers:
			g.Go(func() error {
				page, err := lister.ListUsers(gctx, orgID)
				if err != nil {
					return fmt.Errorf("failed to list users: %w", err)
				}
				users = page
				return nil
			})
		case KindGroups:
			g.Go(func() error {
				page, err := lister.ListGroups(gctx, orgID)
				if err != nil {
					return fmt.Errorf("failed to list groups: %w", err)
				}
				groups = page
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &ExportResult{Counts: map[Kind]int{}, Paths: map[Kind]string{}}
	if users != nil {
		if err := store.SaveUsers(users); err != nil {
			return nil, err
		}
		result.Counts[KindUsers] = len(users.Results)
		result.Paths[KindUsers] = store.Path(KindUsers)
	}
	if groups != nil {
		if err := store.SaveGroups(groups); err != nil {
			return nil, err
		}
		result.Counts[KindGroups] = len(groups.Results)
		result.Paths[KindGroups] = store.Path(KindGroups)
	}
	return result, nil
}
