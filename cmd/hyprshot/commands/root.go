package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shikoucore/hyprshot/internal/capture"
	"github.com/shikoucore/hyprshot/internal/compositor"
	"github.com/shikoucore/hyprshot/internal/config"
	"github.com/shikoucore/hyprshot/internal/freeze"
	"github.com/shikoucore/hyprshot/internal/geometry"
	"github.com/shikoucore/hyprshot/internal/logger"
	"github.com/shikoucore/hyprshot/internal/save"
	"github.com/shikoucore/hyprshot/internal/selector"
	"github.com/shikoucore/hyprshot/internal/wayland"
)

var (
	cfgFile string

	flagModes        []string
	flagOutputFolder string
	flagFilename     string
	flagDelay        uint64
	flagFreeze       bool
	flagDebug        bool
	flagSilent       bool
	flagRaw          bool
	flagNotifTimeout uint32
	flagClipboard    bool
	flagNoConfig     bool

	rootCmd = &cobra.Command{
		Use:   "hyprshot [flags] -- [command]",
		Short: "Take screenshots on Hyprland and other wlroots compositors",
		Long: `Hyprshot captures windows, regions and monitors on Wayland
compositors, saves the image to a folder of your choosing and copies it to
the clipboard.

Examples:
  capture a window                      hyprshot -m window
  capture active window to clipboard    hyprshot -m window -m active --clipboard-only
  capture selected monitor              hyprshot -m output -m DP-1
  open the screenshot with a viewer     hyprshot -m region -- mirage`,
		RunE: runCapture,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/hyprshot/config.toml)")

	rootCmd.Flags().StringArrayVarP(&flagModes, "mode", "m", nil, "one of: output, window, region, active, OUTPUT_NAME")
	rootCmd.Flags().StringVarP(&flagOutputFolder, "output-folder", "o", "", "directory in which to save the screenshot")
	rootCmd.Flags().StringVarP(&flagFilename, "filename", "f", "", "file name of the resulting screenshot")
	rootCmd.Flags().Uint64VarP(&flagDelay, "delay", "D", 0, "delay before taking the screenshot (seconds)")
	rootCmd.Flags().BoolVar(&flagFreeze, "freeze", false, "freeze the screen while selecting")
	rootCmd.Flags().BoolVarP(&flagDebug, "debug", "d", false, "print debug information")
	rootCmd.Flags().BoolVarP(&flagSilent, "silent", "s", false, "don't send a notification when the screenshot is saved")
	rootCmd.Flags().BoolVarP(&flagRaw, "raw", "r", false, "output raw PNG data to stdout")
	rootCmd.Flags().Uint32VarP(&flagNotifTimeout, "notif-timeout", "n", 0, "notification timeout in milliseconds")
	rootCmd.Flags().BoolVar(&flagClipboard, "clipboard-only", false, "copy to clipboard and don't save to disk")
	rootCmd.Flags().BoolVar(&flagNoConfig, "no-config", false, "don't load the config file")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func configManager() (*config.Manager, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.NewManager(path), nil
}

func loadConfig() *config.Config {
	if flagNoConfig {
		return config.Default()
	}
	mgr, err := configManager()
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("failed to locate config, using defaults")
		return config.Default()
	}
	cfg, err := mgr.Load()
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("failed to load config, using defaults")
		return config.Default()
	}
	return cfg
}

// captureMode is the resolved -m selection.
type captureMode struct {
	mode           string // "output", "window" or "region"
	active         bool
	selectedOutput string
}

func parseModes(modes []string) (captureMode, error) {
	var cm captureMode
	for _, m := range modes {
		switch strings.ToLower(m) {
		case "output", "window", "region":
			cm.mode = strings.ToLower(m)
		case "active":
			cm.active = true
		default:
			cm.selectedOutput = m
		}
	}
	if cm.mode == "" {
		return cm, fmt.Errorf("a mode is required (output, region, window)")
	}
	return cm, nil
}

func runCapture(cmd *cobra.Command, args []string) error {
	if len(flagModes) == 0 {
		return cmd.Help()
	}

	mode, err := parseModes(flagModes)
	if err != nil {
		return err
	}

	level := "info"
	if flagDebug {
		level = "debug"
	}
	logger.Init(level, flagDebug)
	log := logger.WithComponent("hyprshot")

	cfg := loadConfig()

	silent := flagSilent || !cfg.Capture.Notification
	notifTimeout := int32(cfg.Capture.NotificationTimeout)
	if cmd.Flags().Changed("notif-timeout") {
		notifTimeout = int32(flagNotifTimeout)
	}
	freezeScreen := flagFreeze || cfg.Advanced.FreezeOnRegion

	delay := time.Duration(flagDelay) * time.Second
	if delay == 0 && cfg.Advanced.DelayMs > 0 {
		delay = time.Duration(cfg.Advanced.DelayMs) * time.Millisecond
	}

	var postCommand []string
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		postCommand = args[at:]
	}

	savePath := ""
	if !flagClipboard && !flagRaw {
		dir, err := config.ScreenshotsDir(flagOutputFolder, cfg)
		if err != nil {
			return err
		}
		name := flagFilename
		if name == "" {
			name = defaultFilename(time.Now())
		}
		savePath = filepath.Join(dir, name)
		log.Debug().Str("path", savePath).Msg("saving screenshot to")
	}

	// Freeze is cosmetic. A disabled freeze is a no-op session; any other
	// failure is logged and capture proceeds unfrozen.
	var session *freeze.Session
	if freezeScreen {
		session, err = freeze.NewController().Start(mode.selectedOutput, flagDebug)
		if err != nil {
			log.Warn().Err(err).Msg("screen freeze unavailable, capturing live")
			session = nil
		}
	}
	defer session.Stop()

	if delay > 0 {
		time.Sleep(delay)
	}

	region, err := selectGeometry(mode, silent, notifTimeout)
	if err != nil {
		return err
	}
	log.Debug().Stringer("geometry", region).Msg("selection complete")

	if err := session.Stop(); err != nil {
		log.Warn().Err(err).Msg("freeze teardown failed")
	}

	src, err := capture.NewScreencopySource()
	if err != nil {
		return fmt.Errorf("open capture source: %w", err)
	}
	defer src.Close()

	img, err := capture.CaptureRegion(src, region)
	if err != nil {
		return err
	}

	return save.Screenshot(img, save.Options{
		Path:          savePath,
		ClipboardOnly: flagClipboard,
		Raw:           flagRaw,
		Command:       postCommand,
		Silent:        silent,
		NotifTimeout:  notifTimeout,
	})
}

func selectGeometry(mode captureMode, silent bool, notifTimeout int32) (geometry.Geometry, error) {
	switch mode.mode {
	case "output":
		if mode.active {
			return compositor.ActiveOutputGeometry()
		}
		if mode.selectedOutput != "" {
			return wayland.ResolveOutputGeometry(mode.selectedOutput)
		}
		return selector.SelectOutput()

	case "region":
		g, err := selector.SelectRegion()
		if err != nil {
			if !silent && strings.Contains(err.Error(), "slurp") {
				save.NotifyHint("Region mode", "Drag to select an area (not a window/output).", notifTimeout)
			}
			return geometry.Geometry{}, err
		}
		return g, nil

	case "window":
		var g geometry.Geometry
		var err error
		if mode.active {
			g, err = compositor.ActiveWindowGeometry()
		} else {
			var boxes []compositor.WindowBox
			boxes, err = compositor.VisibleWindowBoxes()
			if err == nil {
				g, err = selector.SelectWindow(boxes)
			}
		}
		if err != nil {
			return geometry.Geometry{}, err
		}
		// Windows can hang over monitor edges; crop to the one they
		// start on.
		return compositor.TrimToMonitor(g)
	}
	return geometry.Geometry{}, fmt.Errorf("unknown mode %q", mode.mode)
}

func defaultFilename(now time.Time) string {
	return fmt.Sprintf("%s-%03d_hyprshot.png",
		now.Format("2006-01-02-150405"),
		now.Nanosecond()/int(time.Millisecond))
}
