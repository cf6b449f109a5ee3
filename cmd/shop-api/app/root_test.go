package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{{"serve"}, {"seed"}, {"users", "grant"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestRootFlags(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	cmd := NewRootCommand()

	f := cmd.PersistentFlags().Lookup("config-dir")
	require.NotNil(t, f)
	assert.Equal(t, "configs", f.DefValue)

	f = cmd.PersistentFlags().Lookup("env")
	require.NotNil(t, f)
	assert.Equal(t, "staging", f.DefValue)

	// the root runs serve, so it accepts serve's flags
	assert.NotNil(t, cmd.Flags().Lookup("seed"))
}

func TestSeedAgainstMemoryStore(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"seed", "--config-dir", "../../../configs", "--env", "dev"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "inserted 50 products\n", out.String())
}

func TestGrantUnknownUser(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"users", "grant", "nobody", "fulfillment", "--config-dir", "../../../configs", "--env", "dev"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user not found")
}

func TestGrantNeedsTwoArgs(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"users", "grant", "luke"})
	assert.Error(t, cmd.Execute())
}
