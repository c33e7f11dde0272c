package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/framecomp/internal/engine"
	"github.com/ivlev/framecomp/internal/renderer"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var (
		from    float64
		limit   time.Duration
		fpsFlag float64
	)
	cmd := &cobra.Command{
		Use:   "play [project.yaml]",
		Short: "Play the timeline in real time and report dropped frames",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openProject(firstArg(args))
			if err != nil {
				return err
			}
			fps := fpsFlag
			if fps <= 0 {
				fps = s.project.Canvas.FPS
			}
			player, err := engine.NewPlayer(s.renderer, s.project.Timeline, fps, ctx.log)
			if err != nil {
				return err
			}

			runCtx := cmd.Context()
			if limit > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, limit)
				defer cancel()
			}

			var degraded int
			start := time.Now()
			err = player.Play(runCtx, from, func(cf *renderer.CompositeFrame) {
				if cf.Degraded {
					degraded++
				}
			})
			if errors.Is(err, context.DeadlineExceeded) {
				err = nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable("Playback",
				[]string{"Rendered", "Dropped", "Degraded", "Wall time", "Cached"},
				[][]string{{
					itoa(player.Rendered()),
					itoa(player.Dropped()),
					itoa(degraded),
					time.Since(start).Round(time.Millisecond).String(),
					itoa(s.renderer.CacheLen()),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return err
		},
	}
	cmd.Flags().Float64Var(&from, "from", 0, "Start time in seconds")
	cmd.Flags().DurationVar(&limit, "limit", 0, "Stop after this much wall time")
	cmd.Flags().Float64Var(&fpsFlag, "fps", 0, "Tick rate (default: project fps)")
	return cmd
}
