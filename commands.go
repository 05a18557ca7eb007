package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/tabwriter"

	"AspectLock/internal/aspect"
	"AspectLock/internal/logger"
	"AspectLock/internal/policy"
	"AspectLock/internal/window"

	"github.com/spf13/cobra"
)

func newRatioCmd() *cobra.Command {
	var (
		width, height int32
		xoff, yoff    int32
		rounding      string
	)
	cmd := &cobra.Command{
		Use:   "ratio <ratio>",
		Short: "Show the window size a ratio produces",
		Long: `Parse a ratio such as "16:9", "21/9" or "1.5" and print the outer window
size the lock would produce for the given width or height.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := policy.ParseRatio(args[0])
			if err != nil {
				return err
			}
			round, err := aspect.ParseRounding(rounding)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s = %s\n", args[0], policy.FormatRatio(r))
			if width > 0 {
				fmt.Fprintf(out, "width %d -> %dx%d\n", width, width, aspect.HeightFor(width, r, xoff, yoff, round))
			}
			if height > 0 {
				fmt.Fprintf(out, "height %d -> %dx%d\n", height, aspect.WidthFor(height, r, xoff, yoff, round), height)
			}
			return nil
		},
	}
	cmd.Flags().Int32Var(&width, "width", 0, "Outer window width")
	cmd.Flags().Int32Var(&height, "height", 0, "Outer window height")
	cmd.Flags().Int32Var(&xoff, "xoff", 16, "Horizontal border offset")
	cmd.Flags().Int32Var(&yoff, "yoff", 39, "Vertical border offset")
	cmd.Flags().StringVar(&rounding, "rounding", "truncate", `"truncate" or "nearest"`)
	return cmd
}

func newWindowsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List top-level windows that can be targeted",
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := window.New(logger.Nop()).List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "HWND\tPID\tCLASS\tTITLE\tEXE")
			for _, in := range infos {
				if !in.Visible && !all {
					continue
				}
				fmt.Fprintf(tw, "%#x\t%d\t%s\t%s\t%s\n", uintptr(in.Handle), in.PID, in.ClassName, in.Title, in.ExecutablePath)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include hidden windows")
	return cmd
}

func newAutostartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage starting aspectlock at logon",
	}
	app := NewApp(logger.Nop())
	cmd.AddCommand(
		&cobra.Command{
			Use:   "on",
			Short: "Start aspectlock with the current config at logon",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := filepath.Abs(configPath)
				if err != nil {
					return err
				}
				return app.SetAutostart(true, "--config", path)
			},
		},
		&cobra.Command{
			Use:   "off",
			Short: "Remove the logon entry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.SetAutostart(false)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether the logon entry exists",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				state := "off"
				if app.GetAutostart() {
					state = "on"
				}
				fmt.Fprintln(cmd.OutOrStdout(), state)
			},
		},
	)
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := policy.DefaultConfig().Save(configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective config path and values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := policy.Load(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", configPath)
			return cfg.Encode(out)
		},
	}
	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
