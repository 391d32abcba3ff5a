package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"terrametrics/internal/util"
	tm "terrametrics/pkg/terrametrics"
)

func (c *cli) tpiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tpi <dem.tif>",
		Short: "Topographic position index of a DEM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := c.newReport("tpi", args[0])
			dem, err := c.loadBand(args[0], "elevation")
			if err != nil {
				return err
			}
			tpi, err := tm.TPI(dem, c.cfg.TPIParams())
			if err != nil {
				return err
			}
			if err := rep.addBands(tpi, nil); err != nil {
				return err
			}
			if err := rep.png("tpi.png", tpi, nil, "TPI"); err != nil {
				return err
			}
			return rep.finish()
		},
	}
}

func (c *cli) slopePositionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slope-position <dem.tif>",
		Short: "Six-class slope position from TPI and slope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := c.newReport("slope-position", args[0])
			dem, err := c.loadBand(args[0], "elevation")
			if err != nil {
				return err
			}
			tpi, err := tm.TPI(dem, c.cfg.TPIParams())
			if err != nil {
				return err
			}
			slope, err := tm.Slope(dem)
			if err != nil {
				return err
			}
			p, err := c.cfg.SlopePositionParams()
			if err != nil {
				return err
			}
			classes, err := tm.SlopePosition(tpi, slope, p)
			if err != nil {
				return err
			}
			palette := tm.SlopePositionPalette()
			if err := rep.addBands(classes, &palette); err != nil {
				return err
			}
			if err := rep.addBands(slope, nil); err != nil {
				return err
			}
			if err := rep.png("slope-position.png", classes, palette, "Slope position"); err != nil {
				return err
			}
			return rep.finish()
		},
	}
}

func (c *cli) hliCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hli <dem.tif>",
		Short: "McCune and Keon heat load index of a DEM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := c.newReport("hli", args[0])
			dem, err := c.loadBand(args[0], "elevation")
			if err != nil {
				return err
			}
			slope, err := tm.Slope(dem)
			if err != nil {
				return err
			}
			aspect, err := tm.Aspect(dem)
			if err != nil {
				return err
			}
			hli, err := tm.HeatLoadIndex(slope, aspect, c.cfg.HeatLoadParams())
			if err != nil {
				return err
			}
			stack, err := hli.AddBands(slope, aspect)
			if err != nil {
				return err
			}
			if err := rep.addBands(stack, nil); err != nil {
				return err
			}
			if err := rep.png("hli.png", hli, nil, "Heat load index"); err != nil {
				return err
			}
			return rep.finish()
		},
	}
}

func (c *cli) nbrCmd() *cobra.Command {
	var preNIR, preSWIR, postNIR, postSWIR string
	var simplify float64
	cmd := &cobra.Command{
		Use:   "nbr",
		Short: "Burn severity (NBR, dNBR, RdNBR, mortality, refugia) from pre/post scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := c.newReport("nbr", preNIR, preSWIR, postNIR, postSWIR)
			p := c.cfg.BurnSeverityParams()
			names := []string{p.NIRBand, p.SWIRBand}
			pre, err := c.loadBands([]string{preNIR, preSWIR}, names)
			if err != nil {
				return err
			}
			post, err := c.loadBands([]string{postNIR, postSWIR}, names)
			if err != nil {
				return err
			}
			res, err := tm.BurnSeverity(pre, post, p)
			if err != nil {
				return err
			}
			stack, err := res.Stack()
			if err != nil {
				return err
			}
			if err := rep.addBands(stack, nil); err != nil {
				return err
			}

			refugia, err := tm.Vectorize(res.Refugia, tm.NewVectorizeOptions())
			if err != nil {
				return err
			}
			refugia = tm.Simplify(refugia, simplify)
			fc := geojson.NewFeatureCollection()
			f := geojson.NewFeature(refugia)
			f.Properties["product"] = "refugia"
			f.Properties["max_mortality"] = tm.RefugiaMaxMortality
			fc.Append(f)
			if err := rep.geojson("refugia.geojson", fc); err != nil {
				return err
			}
			rep.set("refugia_polygons", strconv.Itoa(len(refugia)))

			if err := rep.png("dnbr.png", res.DNBR, nil, "dNBR"); err != nil {
				return err
			}
			opts := tm.NewRenderOptions()
			opts.Width = c.cfg.Render.Width
			opts.Palette = tm.BinaryPalette("refugia")
			opts.Title = "Refugia"
			opts.Outline = refugia
			if err := rep.pngWith("refugia.png", res.Refugia, opts); err != nil {
				return err
			}
			return rep.finish()
		},
	}
	cmd.Flags().StringVar(&preNIR, "pre-nir", "", "Pre-fire NIR raster")
	cmd.Flags().StringVar(&preSWIR, "pre-swir", "", "Pre-fire SWIR raster")
	cmd.Flags().StringVar(&postNIR, "post-nir", "", "Post-fire NIR raster")
	cmd.Flags().StringVar(&postSWIR, "post-swir", "", "Post-fire SWIR raster")
	cmd.Flags().Float64Var(&simplify, "simplify", 0, "Douglas-Peucker tolerance for refugia polygons, in map units")
	for _, name := range []string{"pre-nir", "pre-swir", "post-nir", "post-swir"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *cli) climateCmd() *cobra.Command {
	var temp, dew, u, v string
	cmd := &cobra.Command{
		Use:   "climate",
		Short: "Relative humidity, VPD, wind speed and hot-dry-windy index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := c.newReport("climate", temp, dew, u, v)
			t, err := c.loadBand(temp, "temperature")
			if err != nil {
				return err
			}
			td, err := c.loadBand(dew, "dewpoint")
			if err != nil {
				return err
			}
			rh, err := tm.RelativeHumidityImage(t, td)
			if err != nil {
				return err
			}
			vpd, err := tm.VaporPressureDeficitImage(t, td)
			if err != nil {
				return err
			}
			stack, err := rh.AddBands(vpd)
			if err != nil {
				return err
			}
			quicklook := rh
			if u != "" || v != "" {
				if u == "" || v == "" {
					return fmt.Errorf("%w: --u and --v must be given together", util.ErrInvalidArgument)
				}
				ui, err := c.loadBand(u, "u")
				if err != nil {
					return err
				}
				vi, err := c.loadBand(v, "v")
				if err != nil {
					return err
				}
				wind, err := tm.WindVelocityImage(ui, vi)
				if err != nil {
					return err
				}
				hdw, err := tm.HotDryWindyIndexImage(vpd, wind)
				if err != nil {
					return err
				}
				if stack, err = stack.AddBands(wind, hdw); err != nil {
					return err
				}
				quicklook = hdw
			}
			if err := rep.addBands(stack, nil); err != nil {
				return err
			}
			name := quicklook.BandNames()[0]
			if err := rep.png(name+".png", quicklook, nil, name); err != nil {
				return err
			}
			return rep.finish()
		},
	}
	cmd.Flags().StringVar(&temp, "temp", "", "Air temperature raster, degrees C")
	cmd.Flags().StringVar(&dew, "dewpoint", "", "Dew point raster, degrees C")
	cmd.Flags().StringVar(&u, "u", "", "Eastward wind raster, m/s")
	cmd.Flags().StringVar(&v, "v", "", "Northward wind raster, m/s")
	_ = cmd.MarkFlagRequired("temp")
	_ = cmd.MarkFlagRequired("dewpoint")
	return cmd
}

func (c *cli) renderCmd() *cobra.Command {
	var palette, title, label string
	cmd := &cobra.Command{
		Use:   "render <raster.tif>",
		Short: "Quicklook PNG of a single-band raster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := util.MatchArg("palette", palette, "ramp", "slope-position", "binary")
			if err != nil {
				return err
			}
			rep := c.newReport("render", args[0])
			img, err := c.loadBand(args[0], "value")
			if err != nil {
				return err
			}
			var pal tm.Palette
			var classes *tm.ClassPalette
			switch kind {
			case "slope-position":
				cp := tm.SlopePositionPalette()
				pal, classes = cp, &cp
			case "binary":
				cp := tm.BinaryPalette(label)
				pal, classes = cp, &cp
			}
			if err := rep.addBands(img, classes); err != nil {
				return err
			}
			if title == "" {
				title = args[0]
			}
			if err := rep.png("render.png", img, pal, title); err != nil {
				return err
			}
			return rep.finish()
		},
	}
	cmd.Flags().StringVar(&palette, "palette", "ramp", "Palette (ramp, slope-position, binary)")
	cmd.Flags().StringVar(&title, "title", "", "Legend title (default: input path)")
	cmd.Flags().StringVar(&label, "label", "mask", "Label of the 1 class of the binary palette")
	return cmd
}

func (c *cli) fireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fire",
		Short: "Periodic or cumulative fire boundaries from the job file's detection sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.cfg.FireBoundaryParams()
			if err != nil {
				return fmt.Errorf("invalid fire job: %w", err)
			}
			var inputs []string
			for _, s := range c.cfg.Fire.Sources {
				for _, obs := range s.Observations {
					inputs = append(inputs, obs.Path)
				}
			}
			rep := c.newReport("fire", inputs...)

			for _, s := range c.cfg.Fire.Sources {
				src, err := c.loadSource(s.Name, s.QualityBand, s.BestQuality, s.Observations)
				if err != nil {
					return err
				}
				p.Sources = append(p.Sources, src)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			boundaries, err := tm.FireBoundaries(ctx, p)
			if err != nil {
				return err
			}

			vopts := tm.NewVectorizeOptions()
			vopts.Geometry = p.Region
			fc, err := tm.FireBoundariesToCollection(boundaries, vopts, c.cfg.Fire.Simplify)
			if err != nil {
				return err
			}
			if res := c.cfg.Fire.H3Resolution; res != nil {
				if err := c.attachCells(fc, *res); err != nil {
					return err
				}
			}
			if err := rep.geojson("fire.geojson", fc); err != nil {
				return err
			}

			if n := len(boundaries); n > 0 {
				last := boundaries[n-1]
				opts := tm.NewRenderOptions()
				opts.Width = c.cfg.Render.Width
				opts.Palette = tm.BinaryPalette("fire")
				if id, ok := last.Get(tm.PropID); ok {
					opts.Title = fmt.Sprint(id)
				}
				if mp, ok := fc.Features[n-1].Geometry.(orb.MultiPolygon); ok {
					opts.Outline = mp
				}
				if err := rep.pngWith("fire.png", last.Unmask(0), opts); err != nil {
					return err
				}
			}

			detected := make([]string, len(boundaries))
			for i, b := range boundaries {
				detected[i] = strconv.Itoa(b.CountValid())
			}
			rep.summary.Grid = p.Sources[0].Collection.Grid().String()
			rep.set("intervals", strconv.Itoa(len(boundaries)))
			rep.set("detected_pixels", strings.Join(detected, ","))
			rep.set("cumulative", strconv.FormatBool(p.Cumulative))
			return rep.finish()
		},
	}
}
