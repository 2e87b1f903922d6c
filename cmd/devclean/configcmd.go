package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/devclean/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the devclean configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	Long: `Init writes the default configuration with explanatory comments to
~/.config/devclean/config.yaml (or the --config path). It refuses to
overwrite an existing file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			var err error
			path, err = config.DefaultPath()
			if err != nil {
				return err
			}
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long: `Show prints the configuration after merging defaults, the config file,
DEVCLEAN_* environment variables and flags, plus where it came from.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := newViper(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}

		if file := v.ConfigFileUsed(); file != "" {
			fmt.Printf("# %s\n", file)
		} else {
			fmt.Println("# built-in defaults (no config file found)")
		}
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
