package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shikoucore/hyprshot/internal/config"
)

var flagWithClipboard bool

var bindsCmd = &cobra.Command{
	Use:   "binds",
	Short: "Manage Hyprland keybindings",
	Long:  `Generate or install Hyprland keybindings for the configured hotkeys.`,
}

var bindsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print keybindings for hyprland.conf",
	RunE:  runBindsGenerate,
}

var bindsInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Append keybindings to hyprland.conf (creates a backup)",
	RunE:  runBindsInstall,
}

func init() {
	rootCmd.AddCommand(bindsCmd)
	bindsCmd.AddCommand(bindsGenerateCmd)
	bindsCmd.AddCommand(bindsInstallCmd)

	bindsCmd.PersistentFlags().BoolVar(&flagWithClipboard, "with-clipboard", false, "include clipboard-only variants (ALT modifier)")
}

func runBindsGenerate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	fmt.Println(cfg.HyprlandBinds(flagWithClipboard))
	fmt.Println("To install these bindings:")
	fmt.Println("1. Copy the output above")
	fmt.Println("2. Paste into ~/.config/hypr/hyprland.conf")
	fmt.Println("3. Reload Hyprland config: hyprctl reload")
	fmt.Println("\nOr use: hyprshot binds install")
	return nil
}

func runBindsInstall(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	confPath, err := config.HyprlandConfigPath()
	if err != nil {
		return err
	}

	fmt.Println("Installing hyprshot keybindings to Hyprland config...")
	if err := cfg.InstallHyprlandBinds(confPath, flagWithClipboard); err != nil {
		return err
	}

	fmt.Println("Keybindings installed successfully!")
	fmt.Printf("Config file: %s\n", confPath)
	fmt.Println("\nTo apply the changes: hyprctl reload")
	return nil
}
