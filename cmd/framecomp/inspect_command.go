package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/framecomp/internal/project"
	"github.com/ivlev/framecomp/internal/timeline"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [project.yaml]",
		Short: "List the tracks, clips, transitions and overlays of a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := firstArg(args)
			if path == "" {
				latest, err := project.FindLatest(projectsDir)
				if err != nil {
					return err
				}
				path = latest
			}
			// Sources are not opened: inspection works on projects whose
			// media is unavailable.
			p, err := project.Load(path, timeline.WithLogger(ctx.log))
			if err != nil {
				return err
			}
			writeInspection(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func writeInspection(w io.Writer, p *project.Project) {
	st := p.Timeline.State()
	fmt.Fprintf(w, "%s (%s) %dx%d @ %g fps, %s s, version %d\n",
		p.Name, p.ID, p.Canvas.Width, p.Canvas.Height, p.Canvas.FPS,
		seconds(p.Timeline.Duration()), st.Version)

	trackRows := make([][]string, 0, len(st.Tracks))
	for _, tr := range st.Tracks {
		trackRows = append(trackRows, []string{
			itoa(tr.Index), tr.Name, itoa(len(tr.Clips)), yesNo(tr.Locked), yesNo(tr.Hidden),
		})
	}
	fmt.Fprintln(w, renderTable("Tracks",
		[]string{"Track", "Name", "Clips", "Locked", "Hidden"}, trackRows,
		[]columnAlignment{alignRight, alignLeft, alignRight}))

	clipRows := make([][]string, 0, len(st.Clips))
	for _, c := range st.Clips {
		kinds := make([]string, len(c.Effects))
		for i, e := range c.Effects {
			kinds[i] = e.Kind
		}
		props := make([]string, 0, len(c.Keyframes))
		for prop := range c.Keyframes {
			props = append(props, string(prop))
		}
		sort.Strings(props)
		chroma := ""
		if c.Chroma != nil {
			chroma = fmt.Sprintf("#%02x%02x%02x", c.Chroma.KeyColor[0], c.Chroma.KeyColor[1], c.Chroma.KeyColor[2])
		}
		clipRows = append(clipRows, []string{
			itoa(c.ID), itoa(c.Track), seconds(c.Start), seconds(c.End()), seconds(c.TrimIn),
			c.Source, strings.Join(kinds, ","), chroma, strings.Join(props, ","),
		})
	}
	fmt.Fprintln(w, renderTable("Clips",
		[]string{"ID", "Track", "Start", "End", "Trim in", "Source", "Effects", "Key", "Animated"}, clipRows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight}))

	if len(st.Transitions) > 0 {
		rows := make([][]string, 0, len(st.Transitions))
		for _, tr := range st.Transitions {
			rows = append(rows, []string{itoa(tr.From), itoa(tr.To), string(tr.Kind), seconds(tr.Duration)})
		}
		fmt.Fprintln(w, renderTable("Transitions",
			[]string{"From", "To", "Kind", "Duration"}, rows,
			[]columnAlignment{alignRight, alignRight, alignLeft, alignRight}))
	}

	if len(st.Overlays) > 0 {
		rows := make([][]string, 0, len(st.Overlays))
		for _, o := range st.Overlays {
			rows = append(rows, []string{
				itoa(o.ID), o.Text, seconds(o.Start), seconds(o.End()), string(o.Animation.Mode),
			})
		}
		fmt.Fprintln(w, renderTable("Overlays",
			[]string{"ID", "Text", "Start", "End", "Animation"}, rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignRight}))
	}
}
