package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "awxgate", cmd.Use)
	assert.Equal(t, "Launch AWX job templates against single hosts", cmd.Short)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	expectedSubcommands := []string{
		"serve",
		"templates",
		"launch",
		"status",
		"finalize",
		"audit",
		"version",
	}

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}

	for _, expected := range expectedSubcommands {
		assert.True(t, subcommands[expected], "Expected subcommand %s not found", expected)
	}
	assert.Len(t, cmd.Commands(), len(expectedSubcommands))
}

func TestRoot_PersistentFlags(t *testing.T) {
	cmd := Root()

	for _, name := range []string{"config", "verbose", "json"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
}

func TestAudit_Subcommands(t *testing.T) {
	cmd := Root()
	audit, _, err := cmd.Find([]string{"audit", "list"})
	require.NoError(t, err)
	assert.Equal(t, "list", audit.Name())
	assert.NotNil(t, audit.Flags().Lookup("from"))
	assert.NotNil(t, audit.Flags().Lookup("to"))

	show, _, err := cmd.Find([]string{"audit", "show"})
	require.NoError(t, err)
	for _, name := range []string{"timestamp", "host", "actor"} {
		assert.NotNil(t, show.Flags().Lookup(name), "missing flag %s", name)
	}
}
