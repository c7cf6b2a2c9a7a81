package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasConfigFlag(t *testing.T) {
	flag := rootCmd.Flags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestRootCommandFailsOnMissingConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")
	rootCmd.SetArgs([]string{"--config", missing})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath = ""
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
}

func TestRootCommandRejectsUnknownFlag(t *testing.T) {
	rootCmd.SetArgs([]string{"--listen", ":9090"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.Error(t, rootCmd.Execute())
}
