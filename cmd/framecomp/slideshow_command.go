package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ivlev/framecomp/internal/director"
	"github.com/ivlev/framecomp/internal/project"
	"github.com/ivlev/framecomp/internal/source"
	"github.com/ivlev/framecomp/internal/text"
	"github.com/ivlev/framecomp/internal/timeline"
	"github.com/ivlev/framecomp/internal/transition"
)

func newSlideshowCommand(ctx *commandContext) *cobra.Command {
	var (
		out        string
		duration   float64
		fade       float64
		kind       string
		seed       uint64
		camera     bool
		detector   string
		title      string
		titleStyle string
	)
	cmd := &cobra.Command{
		Use:   "slideshow <deck.pdf|image-dir>",
		Short: "Build a project showing every page or image in turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			router, pdf, err := ctx.sources(cfg)
			if err != nil {
				return err
			}

			input, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			var refs []string
			if strings.EqualFold(filepath.Ext(input), ".pdf") {
				n, err := pdf.PageCount(input)
				if err != nil {
					return err
				}
				for i := 0; i < n; i++ {
					refs = append(refs, "pdf:"+source.PageRef(input, i))
				}
			} else {
				paths, err := source.ListImages(input)
				if err != nil {
					return err
				}
				for _, p := range paths {
					refs = append(refs, "image:"+p)
				}
			}

			if duration <= 0 {
				duration = float64(len(refs)) * cfg.Sources.PageDuration
			}
			if !cmd.Flags().Changed("fade") {
				fade = cfg.Slideshow.Fade
			}
			if kind == "" {
				kind = cfg.Slideshow.Transition
			}
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}

			name := strings.ReplaceAll(strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)), " ", "_")
			canvas := project.Canvas{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height, FPS: cfg.Canvas.FPS}
			p, err := project.New(name, canvas, timeline.WithBounds(router), timeline.WithLogger(ctx.log))
			if err != nil {
				return err
			}

			ids, err := project.Slideshow(p, refs, project.SlideshowOptions{
				Total:      duration,
				Fade:       fade,
				Transition: transition.Kind(kind),
				Variation:  cfg.Slideshow.Variation,
				Seed:       seed,
			})
			if err != nil {
				return err
			}

			if camera {
				det, err := director.NewDetector(detector)
				if err != nil {
					return err
				}
				d := director.NewDirector(canvas.Width, canvas.Height)
				if err := project.Direct(cmd.Context(), p, router, det, d, ids, ctx.log); err != nil {
					return err
				}
			}

			if title != "" {
				tpl, err := text.LookupTemplate(titleStyle)
				if err != nil {
					return err
				}
				first, err := p.Timeline.Clip(ids[0])
				if err != nil {
					return err
				}
				if _, err := p.Timeline.AddOverlay(timeline.Overlay{
					Text:      title,
					Start:     0,
					Duration:  first.Duration,
					Style:     tpl.Style,
					Animation: tpl.Animation,
				}); err != nil {
					return err
				}
			}

			if out == "" {
				out = project.DefaultPath(projectsDir, name)
			}
			if err := project.Save(p, out); err != nil {
				return err
			}
			ctx.log.WithFields(logrus.Fields{
				"slides":   len(ids),
				"duration": p.Timeline.Duration(),
				"project":  out,
			}).Info("slideshow project written")
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Project file to write")
	cmd.Flags().Float64VarP(&duration, "duration", "d", 0, "Total length in seconds (default: page_duration per slide)")
	cmd.Flags().Float64Var(&fade, "fade", 0, "Transition length in seconds")
	cmd.Flags().StringVar(&kind, "transition", "", "Transition kind")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for slide duration variation (default: time based)")
	cmd.Flags().BoolVar(&camera, "camera", false, "Animate a camera path over detected content blocks")
	cmd.Flags().StringVar(&detector, "detector", "contrast", "Block detector used by --camera")
	cmd.Flags().StringVar(&title, "title", "", "Title overlay on the first slide")
	cmd.Flags().StringVar(&titleStyle, "title-template", "main_title", "Text template for --title")
	return cmd
}
