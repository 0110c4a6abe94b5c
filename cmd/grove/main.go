// Command grove manages a registry of workspaces (usually git working
// trees): tag them, locate them, and run commands or git operations
// across many of them at once.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grovekit/grove/internal/debug"
	"github.com/grovekit/grove/internal/registry"
)

// Exit codes: 0 all succeeded, 1 some or all targets failed, 2 fatal
// (corrupt registry, unreadable archive, usage errors).
const (
	exitOK      = 0
	exitPartial = 1
	exitFatal   = 2
)

var (
	registryPath string
	verboseFlag  bool
	quietFlag    bool

	// Signal-aware context for graceful cancellation of batch runs.
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:           "grove",
	Short:         "Manage many workspaces at once",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&registryPath, "registry", "", "registry file (default "+registry.DefaultFileName+" in the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress non-essential output")

	viper.SetEnvPrefix("GROVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("jobs", 0) // 0 = number of CPUs

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home + "/.config/grove")
	}
	viper.SetConfigName("config")
	_ = viper.ReadInConfig() // optional user config
}

// resolveRegistryPath applies flag > env > default.
func resolveRegistryPath() string {
	if registryPath != "" {
		return registryPath
	}
	if env := viper.GetString("registry"); env != "" {
		return env
	}
	return registry.DefaultFileName
}

// loadRegistry loads the registry or exits fatally; a corrupt registry
// aborts before any per-workspace work happens.
func loadRegistry() *registry.Registry {
	reg, err := registry.Load(resolveRegistryPath())
	if err != nil {
		fatal(err)
	}
	return reg
}

// saveOrDie persists the registry after a successful mutation.
func saveOrDie(reg *registry.Registry) {
	if err := reg.Save(); err != nil {
		fatal(err)
	}
}

// fatal reports a structural failure and exits with the fatal code.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitFatal)
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}
