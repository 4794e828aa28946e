package cmd

import (
	"fmt"

	"auditctl/internal/directory"

	"github.com/spf13/cobra"
)

// kindFlags selects users, groups or both.
type kindFlags struct {
	users  bool
	groups bool
	all    bool
}

func (f *kindFlags) register(cmd *cobra.Command, withAll bool) {
	cmd.Flags().BoolVar(&f.users, "users", false, "Work on users")
	cmd.Flags().BoolVar(&f.groups, "groups", false, "Work on groups")
	if withAll {
		cmd.Flags().BoolVar(&f.all, "all", false, "Work on users and groups")
		cmd.MarkFlagsMutuallyExclusive("users", "groups", "all")
		return
	}
	cmd.MarkFlagsMutuallyExclusive("users", "groups")
}

// selected returns the kinds named by the flags, if any.
func (f *kindFlags) selected() []directory.Kind {
	switch {
	case f.all || (f.users && f.groups):
		return directory.AllKinds
	case f.users:
		return []directory.Kind{directory.KindUsers}
	case f.groups:
		return []directory.Kind{directory.KindGroups}
	default:
		return nil
	}
}

// resolveKind returns the single kind named by the flags, or asks.
func resolveKind(env *environment, flags *kindFlags) (directory.Kind, error) {
	if kinds := flags.selected(); len(kinds) == 1 {
		return kinds[0], nil
	}
	p, err := env.prompt()
	if err != nil {
		return "", err
	}
	idx, err := p.Select("Select users or groups:", []string{"Users", "Groups"}, 0)
	if err != nil {
		return "", err
	}
	return directory.AllKinds[idx], nil
}

func kindTitle(kind directory.Kind) string {
	switch kind {
	case directory.KindUsers:
		return "Users"
	case directory.KindGroups:
		return "Groups"
	default:
		return fmt.Sprintf("%q", string(kind))
	}
}
