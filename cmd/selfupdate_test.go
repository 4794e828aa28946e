package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelfUpdateCmd(t *testing.T) {
	selfUpdateCmd := newSelfUpdateCmd()

	assert.Equal(t, "self-update", selfUpdateCmd.Use)
	assert.NotEmpty(t, selfUpdateCmd.Short)
	assert.NotEmpty(t, selfUpdateCmd.Long)
	assert.NotNil(t, selfUpdateCmd.RunE)
	assert.NotNil(t, selfUpdateCmd.Flags().Lookup("check"))
}

func TestSelfUpdateRefusesDevelopmentBuilds(t *testing.T) {
	for _, v := range []string{"", "dev"} {
		t.Run("version="+v, func(t *testing.T) {
			original := rootCmd.Version
			defer func() { rootCmd.Version = original }()
			rootCmd.Version = v

			_, _, err := runCLI(t, t.TempDir(), "self-update")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "development version")
		})
	}
}

func TestSelfUpdateRequiresReleaseRepository(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()
	rootCmd.Version = "1.2.3"
	t.Setenv(releaseRepoEnv, "")

	_, _, err := runCLI(t, t.TempDir(), "self-update", "--check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no release repository configured")
}

func TestSelfUpdateRejectsMalformedRepository(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()
	rootCmd.Version = "1.2.3"
	t.Setenv(releaseRepoEnv, "")

	_, _, err := runCLI(t, t.TempDir(), "self-update", "--check", "--repo", "not-a-slug")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid release repository "not-a-slug"`)
}

func TestReleaseRepositoryPrecedence(t *testing.T) {
	originalSlug := releaseRepoSlug
	defer func() {
		releaseRepoSlug = originalSlug
		selfUpdateRepo = ""
	}()

	releaseRepoSlug = "build/auditctl"
	t.Setenv(releaseRepoEnv, "")
	slug, err := releaseRepository()
	require.NoError(t, err)
	owner, repo, err := slug.GetSlug()
	require.NoError(t, err)
	assert.Equal(t, "build/auditctl", owner+"/"+repo)

	t.Setenv(releaseRepoEnv, "env/auditctl")
	slug, err = releaseRepository()
	require.NoError(t, err)
	owner, _, _ = slug.GetSlug()
	assert.Equal(t, "env", owner)

	selfUpdateRepo = "flag/auditctl"
	slug, err = releaseRepository()
	require.NoError(t, err)
	owner, _, _ = slug.GetSlug()
	assert.Equal(t, "flag", owner)
}
