package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/friend-map/internal/locations"
	"github.com/sells-group/friend-map/internal/model"
)

var (
	buildRoster string
	buildOutput string
	buildFormat string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Geocode the roster and write the location hierarchy",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if buildFormat != "json" && buildFormat != "geojson" {
			return eris.Errorf("unknown format %q (want json or geojson)", buildFormat)
		}

		env, err := initEnv(ctx, cfg, progressOption("Geocoding"))
		if err != nil {
			return err
		}
		defer env.Close()

		_, roots, err := buildMap(ctx, rosterSource(buildRoster), env.Resolver)
		if err != nil {
			return err
		}

		out := io.Writer(cmd.OutOrStdout())
		if buildOutput != "" && buildOutput != "-" {
			f, err := os.Create(buildOutput)
			if err != nil {
				return eris.Wrapf(err, "create output %s", buildOutput)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		if err := writeMap(out, buildFormat, roots); err != nil {
			return err
		}
		if buildOutput != "" && buildOutput != "-" {
			zap.L().Info("wrote location hierarchy", zap.String("path", buildOutput), zap.String("format", buildFormat))
		}
		return nil
	},
}

func rosterSource(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Roster.Source
}

// writeMap encodes roots as an indented hierarchy or a GeoJSON collection.
func writeMap(w io.Writer, format string, roots []*model.LocationNode) error {
	var v any = roots
	if format == "geojson" {
		fc, err := locations.FeatureCollection(roots)
		if err != nil {
			return eris.Wrap(err, "build geojson")
		}
		v = fc
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode output")
	}
	return nil
}

func init() {
	buildCmd.Flags().StringVar(&buildRoster, "roster", "", "roster file or URL (default from config)")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output file (default stdout)")
	buildCmd.Flags().StringVar(&buildFormat, "format", "json", "output format: json or geojson")
	rootCmd.AddCommand(buildCmd)
}
