// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/tactician/internal/config"
	"github.com/xkilldash9x/tactician/internal/observability"
)

// envPrefix namespaces every environment override, e.g. TACTICIAN_LEDGER_CAPACITY.
const envPrefix = "TACTICIAN"

// app carries state shared by the command tree for one execution.
type app struct {
	cfgFile   string
	v         *viper.Viper
	cfg       *config.Config
	logWriter zapcore.WriteSyncer
}

// NewRootCommand builds a fresh command tree. Logs go to stderr so that
// stdout stays free for decision output.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{v: viper.New(), logWriter: zapcore.Lock(os.Stderr)})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tactician",
		Short:         "Tactician fuses game perception into one action per frame.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			observability.Initialize(a.cfg.Logger(), a.logWriter)
			observability.GetLogger().Debug("Starting tactician", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newReplayCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig reads the config file and environment into a validated Config.
func (a *app) loadConfig() error {
	v := a.v
	config.SetDefaults(v)

	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file: defaults and environment only.
	}

	cfg, err := config.NewConfigFromViper(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	defer observability.Sync()
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	return err
}
