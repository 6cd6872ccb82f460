package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/marionet/marionet/pkg/motion"
	"github.com/marionet/marionet/pkg/ui"
)

func main() {
	var (
		debug      bool
		configPath string
		noMouse    bool
		fps        float64
	)

	rootCmd := &cobra.Command{
		Use:   "marionet [flags] <motion.json>",
		Short: "Keyframe timeline editor for robot motion clips",
		Long: `Marionet is a terminal editor for robot motion clips: per-joint value
tracks with bezier keyframes, ripple editing, range relocation, and full
undo. The main command opens the editor; see "dump" for quick inspection.`,
		Example: `  # Edit a motion clip
  marionet walk_cycle.json

  # Edit with debug logging and no mouse capture
  marionet --debug --no-mouse walk_cycle.json

  # Inspect a clip without opening the editor
  marionet dump walk_cycle.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(debug)

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if noMouse {
				cfg.Mouse = false
			}
			if fps > 0 {
				cfg.FPS = fps
			}

			doc, err := motion.Load(args[0])
			if err != nil {
				return err
			}

			app := ui.New(cfg, ui.NewProcessTerminal(), doc, nil)
			app.SetSavePath(args[0])
			return app.Run(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.config/marionet/config.toml)")
	rootCmd.Flags().BoolVar(&noMouse, "no-mouse", false, "Disable mouse capture")
	rootCmd.Flags().Float64Var(&fps, "fps", 0, "Playback rate override (default: the clip's)")

	rootCmd.AddCommand(dumpCmd(&debug))

	if err := fang.Execute(context.Background(), rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func loadConfig(path string) (ui.Config, error) {
	if path == "" {
		path = ui.DefaultConfigPath()
	}
	return ui.LoadConfig(path)
}

func dumpCmd(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <motion.json>",
		Short: "Print a motion clip's structure without opening the editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := motion.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d fields, %d frames @ %g fps\n",
				doc.Name, len(doc.Fields), doc.FrameCount, doc.FPS)
			for i := range doc.Fields {
				f := &doc.Fields[i]
				fmt.Printf("  %-28s keys=%d", f.DisplayName(), len(f.Keys))
				if f.Limit != nil {
					fmt.Printf(" limit=[%g, %g]", f.Limit.Lower, f.Limit.Upper)
				}
				fmt.Println()
			}
			if *debug {
				_, _ = pretty.Println(doc)
			}
			return nil
		},
	}
}
