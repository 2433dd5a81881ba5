package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/friend-map/internal/locations"
	"github.com/sells-group/friend-map/pkg/geocode"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <location>",
	Short: "Geocode a single location string through the cache",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		text := strings.Join(args, " ")

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		coords := env.Resolver.Resolve(ctx, text)
		place := locations.ParsePlace(text)

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "location:    %s\n", text)
		fmt.Fprintf(w, "country:     %s\n", place.Country)
		if place.State != "" {
			fmt.Fprintf(w, "state:       %s\n", place.State)
		}
		if place.City != "" {
			fmt.Fprintf(w, "city:        %s\n", place.City)
		}
		fmt.Fprintf(w, "coordinates: %s", coords)
		if geocode.IsFallback(coords) {
			fmt.Fprint(w, " (fallback)")
		}
		fmt.Fprintln(w)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
