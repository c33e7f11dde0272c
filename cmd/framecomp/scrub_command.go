package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/framecomp/internal/engine"
)

// newScrubCommand reads seek times from stdin, one per line, and renders
// them latest-wins: a time arriving while an older one is still rendering
// supersedes it.
func newScrubCommand(ctx *commandContext) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "scrub [project.yaml]",
		Short: "Render seek times read from stdin, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.openProject(firstArg(args))
			if err != nil {
				return err
			}
			scrubber := engine.NewScrubber(s.renderer, ctx.log)

			done := make(chan struct{})
			go func() {
				defer close(done)
				for res := range scrubber.Results() {
					if res.Err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "seek %.3f: %v\n", res.Time, res.Err)
						continue
					}
					if out == "" {
						fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\tdegraded=%s\n", res.Seq, seconds(res.Time), yesNo(res.Frame.Degraded))
						continue
					}
					if err := engine.WritePNG(out, res.Frame); err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", res.Seq, seconds(res.Time), out)
				}
			}()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				t, err := strconv.ParseFloat(line, 64)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping %q: not a time\n", line)
					continue
				}
				scrubber.Request(cmd.Context(), t)
			}
			scrubber.Wait()
			scrubber.Close()
			<-done
			return scanner.Err()
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write the latest frame to this PNG")
	return cmd
}
