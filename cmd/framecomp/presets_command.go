package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/framecomp/internal/chroma"
	"github.com/ivlev/framecomp/internal/config"
	"github.com/ivlev/framecomp/internal/effects"
	"github.com/ivlev/framecomp/internal/text"
	"github.com/ivlev/framecomp/internal/transition"
)

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List effects, transitions, chroma presets, text templates and canvas presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			var effectRows [][]string
			for _, kind := range effects.Kinds() {
				e, err := effects.Lookup(kind)
				if err != nil {
					return err
				}
				params := make([]string, 0, len(e.Schema()))
				for _, p := range e.Schema() {
					params = append(params, fmt.Sprintf("%s=%g [%g..%g]", p.Name, p.Default, p.Min, p.Max))
				}
				effectRows = append(effectRows, []string{kind, strings.Join(params, " ")})
			}
			fmt.Fprintln(w, renderTable("Effects", []string{"Kind", "Parameters"}, effectRows, nil))

			var transitionRows [][]string
			for _, kind := range transition.Kinds() {
				transitionRows = append(transitionRows, []string{kind})
			}
			fmt.Fprintln(w, renderTable("Transitions", []string{"Kind"}, transitionRows, nil))

			var chromaRows [][]string
			for _, name := range chroma.PresetNames() {
				p, err := chroma.Preset(name)
				if err != nil {
					return err
				}
				chromaRows = append(chromaRows, []string{
					name,
					fmt.Sprintf("#%02x%02x%02x", p.KeyColor[0], p.KeyColor[1], p.KeyColor[2]),
					fmt.Sprintf("%.3f", p.Tolerance),
					fmt.Sprintf("%.3f", p.EdgeSoftness),
					fmt.Sprintf("%.3f", p.SpillSuppression),
				})
			}
			fmt.Fprintln(w, renderTable("Chroma presets",
				[]string{"Name", "Key", "Tolerance", "Softness", "Spill"}, chromaRows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight}))

			var templateRows [][]string
			for _, name := range text.TemplateNames() {
				tpl, err := text.LookupTemplate(name)
				if err != nil {
					return err
				}
				templateRows = append(templateRows, []string{
					name, tpl.Style.FontFamily, fmt.Sprintf("%g", tpl.Style.Size), string(tpl.Animation.Mode),
				})
			}
			fmt.Fprintln(w, renderTable("Text templates",
				[]string{"Name", "Font", "Size", "Animation"}, templateRows,
				[]columnAlignment{alignLeft, alignLeft, alignRight}))

			names := make([]string, 0, len(config.Presets))
			for name := range config.Presets {
				names = append(names, name)
			}
			sort.Strings(names)
			var canvasRows [][]string
			for _, name := range names {
				size := config.Presets[name]
				canvasRows = append(canvasRows, []string{name, itoa(size[0]), itoa(size[1])})
			}
			fmt.Fprintln(w, renderTable("Canvas presets",
				[]string{"Preset", "Width", "Height"}, canvasRows,
				[]columnAlignment{alignLeft, alignRight, alignRight}))
			return nil
		},
	}
}
