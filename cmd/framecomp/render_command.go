package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ivlev/framecomp/internal/engine"
	"github.com/ivlev/framecomp/internal/renderer"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		at       float64
		out      string
		playback bool
	)
	cmd := &cobra.Command{
		Use:   "render [project.yaml]",
		Short: "Render one frame to a PNG file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openProject(firstArg(args))
			if err != nil {
				return err
			}
			mode := renderer.ModeSeek
			if playback {
				mode = renderer.ModePlayback
			}
			cf, err := s.renderer.RenderFrameAt(cmd.Context(), at, mode)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("frame_%.3f.png", at)
			}
			if err := engine.WritePNG(out, cf); err != nil {
				return err
			}
			ctx.log.WithFields(logrus.Fields{
				"time":     cf.Time,
				"version":  cf.Version,
				"degraded": cf.Degraded,
			}).Info("frame rendered")
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().Float64VarP(&at, "at", "t", 0, "Timeline time in seconds")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output PNG path")
	cmd.Flags().BoolVar(&playback, "clamp", false, "Clamp out-of-range times instead of failing")
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
