package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"fetch", "build", "discover", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "guide-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestFetchCommand_Flags(t *testing.T) {
	flag := fetchCmd.Flags().Lookup("source")
	require.NotNil(t, flag, "fetch command should have --source flag")
	assert.Equal(t, "all", flag.DefValue)

	limit := fetchCmd.Flags().Lookup("limit")
	require.NotNil(t, limit, "fetch command should have --limit flag")
	assert.Equal(t, "0", limit.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestDiscoverCommand_HasSubcommands(t *testing.T) {
	cmds := discoverCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"run", "export", "status"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestDiscoverExportCommand_Flags(t *testing.T) {
	for _, name := range []string{"xlsx", "notion", "run", "min-score"} {
		require.NotNil(t, discoverExportCmd.Flags().Lookup(name),
			"export command should have --%s flag", name)
	}
}
