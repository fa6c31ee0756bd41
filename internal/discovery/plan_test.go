package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPlan(t *testing.T) {
	path := writePlan(t, `
neighborhoods:
  - 성수동
  - 을지로
keywords:
  - 파스타
  - 노포
max_per_search: 5
max_posts: 2
`)

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"성수동", "을지로"}, plan.Neighborhoods)
	assert.Equal(t, []string{"파스타", "노포"}, plan.Keywords)
	assert.Equal(t, 5, plan.MaxPerSearch)
	assert.Equal(t, 2, plan.MaxPosts)
	assert.Equal(t, 4, plan.Searches())
}

func TestLoadPlanDefaults(t *testing.T) {
	path := writePlan(t, `
neighborhoods: [망원동]
keywords: [베이커리]
`)

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, 10, plan.MaxPerSearch)
	assert.Equal(t, 3, plan.MaxPosts)
}

func TestLoadPlanValidation(t *testing.T) {
	_, err := LoadPlan(writePlan(t, `keywords: [파스타]`))
	assert.ErrorContains(t, err, "no neighborhoods")

	_, err = LoadPlan(writePlan(t, `neighborhoods: [성수동]`))
	assert.ErrorContains(t, err, "no keywords")

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
