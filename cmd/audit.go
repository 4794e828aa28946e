package cmd

import (
	"fmt"
	"strings"

	"auditctl/internal/api"
	"auditctl/internal/cli"
	"auditctl/internal/directory"
	pkgstrings "auditctl/pkg/strings"

	"github.com/spf13/cobra"
)

var (
	auditOrg    string
	auditDir    string
	auditAdd    kindFlags
	auditRemove kindFlags
)

// auditCmd represents the audit command group
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Manage the audit items of an organization",
	Long: `Manage which users and groups of an organization are audited.

Examples:
  auditctl audit list                    # Show audit items
  auditctl audit add --users             # Audit every supported user in users.json
  auditctl audit remove --groups         # Pick audited groups to remove`,
}

// auditListCmd represents the audit list command
var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit items",
	Long: `List the audited users and groups of an organization.

The organization is picked with --org, or asked for when the service hosts
more than one.`,
	Args: cobra.NoArgs,
	RunE: withEnvironment(runAuditList),
}

// auditAddCmd represents the audit add command
var auditAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Audit the exported users or groups",
	Long: `Add the users or groups saved by "auditctl directory export" as audit items.

Only supported types are added: users of type User, Shared or Public and
groups of type Office365, Security, Distribution or DynamicDistribution.`,
	Args: cobra.NoArgs,
	RunE: withEnvironment(runAuditAdd),
}

// auditRemoveCmd represents the audit remove command
var auditRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Stop auditing users or groups",
	Long: `Pick audited users or groups by number and remove them.

Answers look like "1,3-5" or "all".`,
	Args: cobra.NoArgs,
	RunE: withEnvironment(runAuditRemove),
}

func runAuditList(cmd *cobra.Command, env *environment, _ []string) error {
	ctx := cmd.Context()
	client, _, err := env.session(ctx)
	if err != nil {
		return err
	}
	org, err := env.selectOrganization(ctx, client, auditOrg)
	if err != nil {
		return err
	}

	items, err := client.ListAuditItems(ctx, org.ID)
	if err != nil {
		return env.describe(fmt.Errorf("failed to list audit items: %w", err))
	}
	return env.printer.Print(auditItemTable(items))
}

func auditItemTable(items []api.AuditItem) cli.Table {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{pkgstrings.Cell(item.DisplayName(), pkgstrings.CellMaxLen), item.ShortID(), item.Type})
	}
	if items == nil {
		items = []api.AuditItem{}
	}
	return cli.Table{
		Headers: []string{"Name", "ID", "Type"},
		Rows:    rows,
		Data:    items,
		Empty:   "No audit items found",
	}
}

func runAuditAdd(cmd *cobra.Command, env *environment, _ []string) error {
	ctx := cmd.Context()
	kind, err := resolveKind(env, &auditAdd)
	if err != nil {
		return err
	}

	items, names, err := exportedAuditItems(directory.NewStore(auditDir), kind)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		env.printer.Infof("No supported %s to add\n", strings.ToLower(kindTitle(kind)))
		return nil
	}

	client, _, err := env.session(ctx)
	if err != nil {
		return err
	}
	org, err := env.selectOrganization(ctx, client, auditOrg)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.out, "This will add the following %s to the audit items of %s:\n", strings.ToLower(kindTitle(kind)), org.Name)
	for _, name := range names {
		fmt.Fprintf(env.out, "  %s\n", name)
	}
	if err := env.confirm("Do you want to continue?"); err != nil {
		return err
	}

	if err := client.AddAuditItems(ctx, org.ID, items); err != nil {
		env.printer.Failuref("%s failed to add!", kindTitle(kind))
		return env.describe(err)
	}
	env.printer.Successf("%s added successfully!", kindTitle(kind))
	return nil
}

// exportedAuditItems reads the exported file of kind and keeps the supported entries.
func exportedAuditItems(store *directory.Store, kind directory.Kind) ([]api.AuditItem, []string, error) {
	var names []string
	switch kind {
	case directory.KindUsers:
		page, err := store.LoadUsers()
		if err != nil {
			return nil, nil, err
		}
		users := directory.SupportedUsers(page.Results)
		for _, u := range users {
			names = append(names, u.DisplayName)
		}
		return directory.UserAuditItems(users), names, nil
	case directory.KindGroups:
		page, err := store.LoadGroups()
		if err != nil {
			return nil, nil, err
		}
		groups := directory.SupportedGroups(page.Results)
		for _, g := range groups {
			names = append(names, g.DisplayName)
		}
		return directory.GroupAuditItems(groups), names, nil
	default:
		return nil, nil, fmt.Errorf("unknown kind %q", kind)
	}
}

func runAuditRemove(cmd *cobra.Command, env *environment, _ []string) error {
	ctx := cmd.Context()
	kind, err := resolveKind(env, &auditRemove)
	if err != nil {
		return err
	}

	client, _, err := env.session(ctx)
	if err != nil {
		return err
	}
	org, err := env.selectOrganization(ctx, client, auditOrg)
	if err != nil {
		return err
	}

	all, err := client.ListAuditItems(ctx, org.ID)
	if err != nil {
		return env.describe(fmt.Errorf("failed to list audit items: %w", err))
	}
	// Indices refer to the filtered list, never to the full one.
	items := directory.FilterAuditItems(all, kind)
	if len(items) == 0 {
		env.printer.Infof("No audited %s\n", strings.ToLower(kindTitle(kind)))
		return nil
	}

	names := make([]string, len(items))
	for i, item := range items {
		names[i] = fmt.Sprintf("%s (%s)", pkgstrings.Cell(item.DisplayName(), pkgstrings.CellMaxLen), item.ShortID())
	}
	p, err := env.prompt()
	if err != nil {
		return err
	}
	chosen, err := p.MultiSelect(fmt.Sprintf("Select %s to remove:", strings.ToLower(kindTitle(kind))), names)
	if err != nil {
		return err
	}

	ids := selectedItemIDs(items, chosen)
	if len(ids) == 0 {
		env.printer.Infof("No items selected\n")
		return nil
	}

	fmt.Fprintf(env.out, "This will remove %d %s from the audit items.\n", len(ids), strings.ToLower(kindTitle(kind)))
	if err := env.confirm("Do you want to continue?"); err != nil {
		return err
	}

	if err := client.RemoveAuditItems(ctx, org.ID, ids); err != nil {
		env.printer.Failuref("Items deletion failed!")
		return env.describe(err)
	}
	env.printer.Successf("Items deleted successfully!")
	return nil
}

// selectedItemIDs maps chosen indices of items to their ids, skipping items without one.
func selectedItemIDs(items []api.AuditItem, chosen []int) []string {
	var ids []string
	for _, i := range chosen {
		if i < 0 || i >= len(items) || items[i].ID == "" {
			continue
		}
		ids = append(ids, items[i].ID)
	}
	return ids
}

func init() {
	auditCmd.PersistentFlags().StringVar(&auditOrg, "org", "", "Organization id or name (asked when the service hosts several)")
	auditAddCmd.Flags().StringVar(&auditDir, "dir", ".", "Directory holding users.json and groups.json")
	auditAdd.register(auditAddCmd, false)
	auditRemove.register(auditRemoveCmd, false)

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditAddCmd)
	auditCmd.AddCommand(auditRemoveCmd)

	rootCmd.AddCommand(auditCmd)
}
