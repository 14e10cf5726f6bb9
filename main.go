// Package main is the entry point for the gymhub API server.
package main

import (
	"fmt"
	"os"

	"gymhub/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the root command for the gymhub CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(viper.New())
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:          "gymhub",
		Short:        "gymhub - identity and gym management API",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	load := func() (*config.Config, error) {
		return config.Load(v, configFile)
	}

	cmd.AddCommand(NewServeCmd(v, load))
	cmd.AddCommand(NewMigrateCmd(load))
	return cmd
}

// bindFlag exposes a flag under its environment key. An explicitly set flag
// beats the environment. Binding an undefined flag panics.
func bindFlag(v *viper.Viper, cmd *cobra.Command, flag, key string) {
	f := cmd.Flags().Lookup(flag)
	if f == nil {
		panic(fmt.Sprintf("bindFlag: command %q has no flag %q", cmd.Name(), flag))
	}
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("bindFlag: %v", err))
	}
}
