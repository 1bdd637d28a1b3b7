package commands

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage hyprshot configuration",
	Long:  `View and manage the hyprshot configuration file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default config file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	RunE:  runConfigPath,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Example: `  # Change the screenshot directory
  hyprshot config set paths.screenshots_dir ~/Documents/Screenshots

  # Always freeze the screen in region mode
  hyprshot config set advanced.freeze_on_region true`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	mgr, err := configManager()
	if err != nil {
		return err
	}
	if mgr.Exists() {
		fmt.Printf("Config file already exists at: %s\n", mgr.Path())
		fmt.Println("Use 'hyprshot config show' to view the current configuration")
		return nil
	}
	if err := mgr.Save(); err != nil {
		return err
	}

	fmt.Printf("Config file created at: %s\n", mgr.Path())
	fmt.Println("\nYou can edit this file manually or use:")
	fmt.Println("hyprshot config set KEY VALUE")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	mgr, err := configManager()
	if err != nil {
		return err
	}
	cfg, err := mgr.Load()
	if err != nil {
		return err
	}

	fmt.Printf("Configuration file: %s\n\n", mgr.Path())
	encoder := toml.NewEncoder(os.Stdout)
	return encoder.Encode(cfg)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	mgr, err := configManager()
	if err != nil {
		return err
	}
	fmt.Println(mgr.Path())
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	mgr, err := configManager()
	if err != nil {
		return err
	}
	if err := mgr.Set(args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Configuration updated: %s = %s\n", args[0], args[1])
	fmt.Printf("Config file: %s\n", mgr.Path())
	return nil
}
