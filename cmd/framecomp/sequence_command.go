package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/framecomp/internal/engine"
)

func newSequenceCommand(ctx *commandContext) *cobra.Command {
	var (
		dir      string
		from, to float64
		fps      float64
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "sequence [project.yaml]",
		Short: "Render a range of the timeline as numbered PNG frames",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openProject(firstArg(args))
			if err != nil {
				return err
			}
			opts := engine.ExportOptions{
				Dir:     dir,
				From:    from,
				To:      to,
				FPS:     fps,
				Workers: workers,
			}
			if opts.To <= 0 {
				opts.To = s.project.Timeline.Duration()
			}
			if opts.FPS <= 0 {
				opts.FPS = s.project.Canvas.FPS
			}
			if opts.Workers <= 0 {
				opts.Workers = s.cfg.Render.ExportWorkers
			}

			stats, err := engine.Export(cmd.Context(), s.renderer, opts, ctx.log)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable("Export",
				[]string{"Frames", "Degraded", "Elapsed", "FPS", "Directory"},
				[][]string{{
					itoa(stats.Frames),
					itoa(stats.Degraded),
					stats.Elapsed.Round(time.Millisecond).String(),
					fmt.Sprintf("%.1f", stats.FPS),
					opts.Dir,
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return err
		},
	}
	cmd.Flags().StringVarP(&dir, "output", "o", "frames", "Output directory")
	cmd.Flags().Float64Var(&from, "from", 0, "Start time in seconds")
	cmd.Flags().Float64Var(&to, "to", 0, "End time in seconds (default: timeline end)")
	cmd.Flags().Float64Var(&fps, "fps", 0, "Frames per second (default: project fps)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent frame renders")
	return cmd
}
