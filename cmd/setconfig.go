package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// setConfigCmd represents the set-config command
var setConfigCmd = &cobra.Command{
	Use:   "set-config",
	Short: "Reads a JSON string, converts it to YAML, and saves it to the configuration file",
	Long: `This command takes a JSON string as an argument, parses it, and writes
the check defaults to the configuration file in YAML format.

Example:
  httpcheck set-config '{"timeout": "10s", "retries": 3, "follow-redirects": "never"}'`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jsonConfig := args[0]

		v := viper.New()
		v.SetConfigType("json")
		if err := v.ReadConfig(bytes.NewBuffer([]byte(jsonConfig))); err != nil {
			fmt.Fprintf(os.Stderr, "Error while reading JSON: %v\n", err)
			os.Exit(ExitErrorInvalidArgs)
		}

		settings := v.AllSettings()
		if len(settings) == 0 {
			fmt.Fprintln(os.Stderr, "Error: no settings found in the input JSON")
			os.Exit(ExitErrorInvalidArgs)
		}

		yamlData, err := yaml.Marshal(settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshalling to YAML: %v\n", err)
			os.Exit(ExitErrorConfig)
		}

		path := defaultConfigPath()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
			os.Exit(ExitErrorConfig)
		}
		if err := os.WriteFile(path, yamlData, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing YAML file: %v\n", err)
			os.Exit(ExitErrorConfig)
		}

		fmt.Printf("Configuration written to %s\n", path)
	},
}

func init() {
	rootCmd.AddCommand(setConfigCmd)
}
