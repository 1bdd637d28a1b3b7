package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/shikoucore/hyprshot/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively configure hotkeys",
	Long: `Walk through the screenshot hotkeys, save them to the config file and
optionally install the matching Hyprland keybindings.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// validateHotkey accepts "MODIFIER, KEY" with an optionally empty modifier.
func validateHotkey(s string) error {
	if !strings.Contains(s, ",") {
		return fmt.Errorf("expected \"MODIFIER, KEY\", e.g. \"SUPER, Print\"")
	}
	parts := strings.SplitN(s, ",", 2)
	if strings.TrimSpace(parts[1]) == "" {
		return fmt.Errorf("key part is empty")
	}
	return nil
}

func runSetup(cmd *cobra.Command, args []string) error {
	mgr, err := configManager()
	if err != nil {
		return err
	}
	cfg, err := mgr.Load()
	if err != nil {
		return err
	}

	window := cfg.Hotkeys.Window
	region := cfg.Hotkeys.Region
	output := cfg.Hotkeys.Output
	activeOutput := cfg.Hotkeys.ActiveOutput
	saveConfig := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Window screenshot").
				Description("Hotkey as \"MODIFIER, KEY\"").
				Validate(validateHotkey).
				Value(&window),

			huh.NewInput().
				Title("Region screenshot").
				Description("Hotkey as \"MODIFIER, KEY\"").
				Validate(validateHotkey).
				Value(&region),

			huh.NewInput().
				Title("Monitor screenshot").
				Description("Hotkey as \"MODIFIER, KEY\"").
				Validate(validateHotkey).
				Value(&output),

			huh.NewInput().
				Title("Active monitor screenshot").
				Description("Hotkey as \"MODIFIER, KEY\" (modifier may be empty)").
				Validate(validateHotkey).
				Value(&activeOutput),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save these hotkeys?").
				Description("Writes to "+mgr.Path()).
				Value(&saveConfig),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	if !saveConfig {
		fmt.Println("Nothing saved.")
		return nil
	}

	for key, value := range map[string]string{
		"hotkeys.window":        strings.TrimSpace(window),
		"hotkeys.region":        strings.TrimSpace(region),
		"hotkeys.output":        strings.TrimSpace(output),
		"hotkeys.active_output": strings.TrimSpace(activeOutput),
	} {
		if err := mgr.Set(key, value); err != nil {
			return err
		}
	}
	fmt.Printf("Hotkeys saved to %s\n\n", mgr.Path())

	const (
		actionInstall  = "install"
		actionGenerate = "generate"
		actionSkip     = "skip"
	)
	action := actionGenerate
	withClipboard := false

	bindsForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Hyprland keybindings").
				Options(
					huh.NewOption("Print them so I can paste them myself", actionGenerate),
					huh.NewOption("Append them to hyprland.conf (with backup)", actionInstall),
					huh.NewOption("Skip", actionSkip),
				).
				Value(&action),

			huh.NewConfirm().
				Title("Include clipboard-only variants?").
				Description("Adds an ALT modifier to each binding").
				Value(&withClipboard),
		),
	)
	if err := bindsForm.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	cfg, err = mgr.Load()
	if err != nil {
		return err
	}

	switch action {
	case actionGenerate:
		fmt.Println(cfg.HyprlandBinds(withClipboard))
		fmt.Println("Paste the lines above into ~/.config/hypr/hyprland.conf")
		fmt.Println("and reload with: hyprctl reload")
	case actionInstall:
		confPath, err := config.HyprlandConfigPath()
		if err != nil {
			return err
		}
		if err := cfg.InstallHyprlandBinds(confPath, withClipboard); err != nil {
			return err
		}
		fmt.Printf("Keybindings installed in %s\n", confPath)
		fmt.Println("Apply them with: hyprctl reload")
	case actionSkip:
		fmt.Println("You can install keybindings later with: hyprshot binds install")
	}
	return nil
}
