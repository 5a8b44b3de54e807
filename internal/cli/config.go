package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"wingetbridge/internal/config"
	"wingetbridge/internal/ui"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Inspect or create the configuration file",
	Annotations: map[string]string{skipDetect: "true"},
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the configuration file path",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipDetect: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(configFile())
	},
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective configuration",
	Long:        "Print the configuration after defaults, the config file and command-line flags are applied.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipDetect: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOut {
			return printJSON(cfg)
		}
		return toml.NewEncoder(os.Stdout).Encode(cfg)
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a configuration file with the default settings",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipDetect: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile()
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if cfgFile == "" {
			if err := config.EnsureConfigDir(); err != nil {
				return err
			}
		}
		if err := config.Default().SaveTo(path); err != nil {
			return err
		}
		ui.SuccessMsg("Wrote %s", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")

	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// configFile is the file --config names, or the default location.
func configFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ConfigPath()
}
