package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"gymhub/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestMigrateCmd_SQLite(t *testing.T) {
	setTestEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", filepath.Join(t.TempDir(), "gymhub.db"))

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"migrate"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Migrations completed successfully")
}

func TestMigrateCmd_InvalidConfig(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "same")
	t.Setenv("JWT_REFRESH_SECRET", "same")
	t.Setenv("DB_DRIVER", "memory")

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestServeCmd_AddrFlagOverridesEnv(t *testing.T) {
	setTestEnv(t)
	t.Setenv("APP_ADDR", ":9999")
	t.Setenv("DB_DRIVER", "memory")

	v := viper.New()
	root := newRootCmd(v)
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)

	cfg, err := config.Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)

	require.NoError(t, serve.Flags().Set("addr", ":7070"))
	cfg, err = config.Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
}

func TestBindFlag_UnknownFlagPanics(t *testing.T) {
	cmd := &cobra.Command{Use: "serve"}
	cmd.Flags().String("addr", "", "")

	assert.NotPanics(t, func() { bindFlag(viper.New(), cmd, "addr", "APP_ADDR") })
	assert.Panics(t, func() { bindFlag(viper.New(), cmd, "adr", "APP_ADDR") })
}
