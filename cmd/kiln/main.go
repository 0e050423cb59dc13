package main

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/kilnforge/kiln/cmd/kiln/internal/common"
	"github.com/kilnforge/kiln/cmd/kiln/internal/config"
	"github.com/kilnforge/kiln/cmd/kiln/internal/contract"
	"github.com/kilnforge/kiln/cmd/kiln/internal/registry"
	"github.com/kilnforge/kiln/cmd/kiln/internal/version"
	"github.com/kilnforge/kiln/common/logging"
	"github.com/kilnforge/kiln/internal/types"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type RootCommand struct {
	baseCmd  *cobra.Command
	config   common.Config
	cfgFile  string
	logLevel string
	verbose  bool
}

var logger = logging.NewLogger("root")

var noConfigCmd = map[string]struct{}{
	"help":             {},
	"completion":       {},
	"__complete":       {},
	"__completeNoDesc": {},
	"config":           {},
	"version":          {},
}

func main() {
	var rootCmd *RootCommand

	rootCmd = &RootCommand{
		baseCmd: &cobra.Command{
			Use:   "kiln",
			Short: "CLI tool for deploying and calling smart contracts",
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				if !rootCmd.verbose {
					zerolog.SetGlobalLevel(zerolog.Disabled)
				} else if err := logging.TrySetupGlobalLevel(rootCmd.logLevel); err != nil {
					return fmt.Errorf("invalid log level %q: %w", rootCmd.logLevel, err)
				}

				common.SetConfigFile(rootCmd.cfgFile)

				// Traverse up to find the top-level command
				for cmd.HasParent() && cmd.Parent() != rootCmd.baseCmd {
					cmd = cmd.Parent()
				}

				if _, withoutConfig := noConfigCmd[cmd.Name()]; withoutConfig {
					return nil
				}
				if err := rootCmd.loadConfig(); err != nil {
					return err
				}
				if err := rootCmd.validateConfig(); err != nil {
					return err
				}
				return common.InitService(&rootCmd.config, logger)
			},
			SilenceUsage:  true,
			SilenceErrors: true,
		},
	}

	rootCmd.baseCmd.PersistentFlags().StringVarP(&rootCmd.cfgFile, "config", "c", common.DefaultConfigPath, "Path to config file")
	rootCmd.baseCmd.PersistentFlags().StringVarP(&rootCmd.logLevel, "log-level", "l", "info", "Log level: trace|debug|info|warn|error|fatal|panic")
	rootCmd.baseCmd.PersistentFlags().BoolVarP(
		&config.Quiet,
		"quiet",
		"q",
		false,
		"Quiet mode (print only the result and exit)",
	)
	rootCmd.baseCmd.PersistentFlags().BoolVarP(
		&rootCmd.verbose,
		"verbose",
		"v",
		false,
		"Verbose mode (print logs)",
	)

	rootCmd.registerSubCommands()
	rootCmd.Execute()
}

// registerSubCommands adds all subcommands to the root command
func (rc *RootCommand) registerSubCommands() {
	rc.baseCmd.AddCommand(
		config.GetCommand(&rc.cfgFile),
		contract.GetCommand(&rc.config),
		registry.GetCommand(&rc.config),
		version.GetCommand(),
	)
}

func decodeAddress(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() == reflect.String && t == reflect.TypeOf(types.Address{}) {
		s, _ := data.(string)
		var res types.Address
		if err := res.UnmarshalText([]byte(s)); err != nil {
			return nil, err
		}
		return res, nil
	}
	return data, nil
}

func updateDecoderConfig(config *mapstructure.DecoderConfig) {
	config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		config.DecodeHook,
		mapstructure.StringToTimeDurationHookFunc(),
		decodeAddress,
	)
}

// loadConfig loads the configuration from the config file
func (rc *RootCommand) loadConfig() error {
	err := viper.ReadInConfig()

	// Create file if it doesn't exist
	if errors.As(err, new(viper.ConfigFileNotFoundError)) {
		logger.Info().Msg("Config file not found. Creating a new one...")

		path, errCfg := common.InitDefaultConfig(rc.cfgFile)
		if errCfg != nil {
			logger.Error().Err(errCfg).Msg("Failed to create config")
			return errCfg
		}

		logger.Info().Msgf("Config file created successfully at %s", path)
		logger.Info().Msgf("set via `%s config set <option> <value>` or via config file", os.Args[0])
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := viper.UnmarshalKey("kiln", &rc.config, updateDecoderConfig); err != nil {
		return fmt.Errorf("unable to decode config: %w", err)
	}

	logger.Debug().Msg("Configuration loaded successfully")
	return nil
}

// validateConfig perform some simple configuration validation
func (rc *RootCommand) validateConfig() error {
	for field, value := range map[string]string{
		common.RPCEndpointField:      rc.config.RPCEndpoint,
		common.SignerEndpointField:   rc.config.SignerEndpoint,
		common.CompilerEndpointField: rc.config.CompilerEndpoint,
	} {
		if value == "" {
			logger.Info().Msgf("%s is missing in config", field)
			logger.Info().Msgf("set via `%s config set %s <endpoint>` or via config file", os.Args[0], field)
			return fmt.Errorf("%q is missing in config", field)
		}
	}
	if rc.config.Address.IsEmpty() {
		return fmt.Errorf("%q is missing in config", common.AddressField)
	}
	return nil
}

// Execute runs the root command and handles any errors
func (rc *RootCommand) Execute() {
	if err := rc.baseCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		os.Exit(1)
	}
}
