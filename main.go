package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AspectLock/internal/logger"
	"AspectLock/internal/policy"

	"github.com/spf13/cobra"
)

var (
	rootCmd    *cobra.Command
	configPath string
)

func main() {
	rootCmd = newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aspectlock",
		Short: "Lock a window to a fixed aspect ratio while it is resized",
		Long: `aspectlock attaches to a top-level window and, each time the user finishes
dragging its border, snaps the other dimension so the client area keeps the
configured width/height ratio.`,
		SilenceUsage: true,
		RunE:         runLock,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", policy.DefaultPath(), "Path to the YAML config file")

	f := cmd.Flags()
	f.String("ratio", "", `Aspect ratio, e.g. "16:9" or "1.7778" (default: the window's current ratio)`)
	f.String("title", "", "Target window title")
	f.String("class", "", "Target window class name")
	f.String("exe", "", "Target executable name or path")
	f.Uint32("pid", 0, "Target process id")
	f.Bool("self", false, "Target this process's own window (class = executable path)")
	f.Duration("tick", 0, "Polling interval")
	f.Duration("wait", 0, "How long to wait for the target window to appear")
	f.String("rounding", "", `Rounding of the computed dimension: "truncate" or "nearest"`)
	f.Bool("no-tray", false, "Do not show the tray icon")
	f.Bool("no-hotkey", false, "Do not register the Ctrl+Alt+A pause hotkey")
	f.Bool("keep-running", false, "Keep running after the target process exits")
	f.String("log", "", `Log mode: "dev", "prod" or "quiet"`)

	cmd.AddCommand(newRatioCmd(), newWindowsCmd(), newAutostartCmd(), newConfigCmd())
	return cmd
}

func runLock(cmd *cobra.Command, args []string) error {
	cfg, err := policy.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting", "config", configPath, "target", cfg.Target, "ratio", cfg.Ratio)
	return NewApp(log).Run(ctx, cfg)
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(cmd *cobra.Command, cfg *policy.Config) error {
	f := cmd.Flags()
	var err error
	str := func(name string, dst *string) {
		if err == nil && f.Changed(name) {
			*dst, err = f.GetString(name)
		}
	}
	dur := func(name string, dst *time.Duration) {
		if err == nil && f.Changed(name) {
			*dst, err = f.GetDuration(name)
		}
	}
	flag := func(name string, dst *bool, invert bool) {
		if err == nil && f.Changed(name) {
			var v bool
			v, err = f.GetBool(name)
			if invert {
				v = !v
			}
			*dst = v
		}
	}

	str("ratio", &cfg.Ratio)
	str("title", &cfg.Target.Title)
	str("class", &cfg.Target.ClassName)
	str("exe", &cfg.Target.Executable)
	str("rounding", &cfg.Rounding)
	str("log", &cfg.LogMode)
	dur("tick", &cfg.TickInterval)
	dur("wait", &cfg.WaitTimeout)
	flag("self", &cfg.Target.Self, false)
	flag("no-tray", &cfg.Tray, true)
	flag("no-hotkey", &cfg.Hotkey, true)
	flag("keep-running", &cfg.ExitWithTarget, true)
	if err == nil && f.Changed("pid") {
		cfg.Target.PID, err = f.GetUint32("pid")
	}
	return err
}
