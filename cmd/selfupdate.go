package cmd

import (
	"fmt"
	"os"

	"auditctl/internal/cli"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// releaseRepoSlug is the GitHub repository (owner/repo) releases are
// published to. Release builds set it with
// -ldflags "-X auditctl/cmd.releaseRepoSlug=owner/repo".
var releaseRepoSlug = ""

// releaseRepoEnv overrides releaseRepoSlug at runtime.
const releaseRepoEnv = "AUDITCTL_RELEASE_REPO"

var (
	selfUpdateCheckOnly bool
	selfUpdateRepo      string
)

// newSelfUpdateCmd creates the Cobra command for the self-update functionality.
func newSelfUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update auditctl to the latest release",
		Long: `Checks GitHub for the latest auditctl release and replaces the running
binary when a newer version is published. Release archives are verified
against the published checksums.txt.

Examples:
  auditctl self-update           # Update to the latest release
  auditctl self-update --check   # Only report whether an update exists
  auditctl self-update --repo acme/auditctl

The repository defaults to the one the binary was built for and can be
overridden with --repo or the AUDITCTL_RELEASE_REPO environment variable.`,
		RunE: runSelfUpdate,
	}
	cmd.Flags().BoolVar(&selfUpdateCheckOnly, "check", false, "Only check for a newer release")
	cmd.Flags().StringVar(&selfUpdateRepo, "repo", "", "GitHub repository (owner/repo) to update from")
	return cmd
}

func runSelfUpdate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	currentVersion := rootCmd.Version
	// Development builds do not follow semantic versioning.
	if currentVersion == "" || currentVersion == "dev" {
		return fmt.Errorf("cannot self-update a development version")
	}

	slug, err := releaseRepository()
	if err != nil {
		return err
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: "checksums.txt"},
	})
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	progress := cli.StartProgress(cmd.ErrOrStderr(), commonFlags.Quiet, "Checking for updates...")
	latest, found, err := updater.DetectLatest(ctx, slug)
	progress.Stop()
	if err != nil {
		return fmt.Errorf("error detecting latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest release for %s could not be found", slug)
	}

	if !latest.GreaterThan(currentVersion) {
		fmt.Fprintf(out, "auditctl %s is the latest version.\n", currentVersion)
		return nil
	}

	fmt.Fprintf(out, "Found newer version: %s (published at %s)\n", latest.Version(), latest.PublishedAt)
	if selfUpdateCheckOnly {
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	progress = cli.StartProgress(cmd.ErrOrStderr(), commonFlags.Quiet, fmt.Sprintf("Updating %s to %s...", exe, latest.Version()))
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		progress.Fail("Update failed")
		return fmt.Errorf("update failed: %w", err)
	}
	progress.Succeed("Updated to " + latest.Version())
	return nil
}

// releaseRepository resolves the repository from --repo, the environment
// and the build, in that order.
func releaseRepository() (selfupdate.RepositorySlug, error) {
	repo := selfUpdateRepo
	if repo == "" {
		repo = os.Getenv(releaseRepoEnv)
	}
	if repo == "" {
		repo = releaseRepoSlug
	}
	if repo == "" {
		return selfupdate.RepositorySlug{}, fmt.Errorf("no release repository configured, pass --repo owner/repo or set %s", releaseRepoEnv)
	}

	slug := selfupdate.ParseSlug(repo)
	if _, _, err := slug.GetSlug(); err != nil {
		return selfupdate.RepositorySlug{}, fmt.Errorf("invalid release repository %q: %w", repo, err)
	}
	return slug, nil
}
