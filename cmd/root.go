package cmd

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docdyhr/httpcheck/internal/version"
	applog "github.com/docdyhr/httpcheck/pkg/log"
)

// Constants for exit codes
const (
	ExitSuccess          = 0
	ExitErrorInvalidArgs = 1
	ExitErrorConnection  = 2
	ExitErrorConfig      = 3
)

var (
	cfgFile string
	logFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "httpcheck",
	Short: "Check website HTTP status codes",
	Long: `A command-line tool to check the HTTP status of one or more websites,
with redirect tracing, retries and TLD validation against the Public
Suffix List.

Usage: httpcheck check example.com @sites.txt`,
	Version: version.Version,
	Args:    cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		applog.InitLogger(logFile)
		if debug {
			applog.SetLogLevel("debug")
		}
		return loadConfig()
	},
}

// loadConfig reads the optional YAML config file. Values act as defaults;
// command-line flags still win because every flag is bound through viper.
func loadConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(filepath.Join(home, ".httpcheck"))
	if err := viper.ReadInConfig(); err != nil {
		// The default config file is optional.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn().Err(err).Msg("could not read config file")
		}
	}
	return nil
}

// defaultConfigPath returns where set-config writes when no --config flag
// was given.
func defaultConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yml"
	}
	return filepath.Join(home, ".httpcheck", "config.yml")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(ExitErrorInvalidArgs)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
