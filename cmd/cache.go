package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the geocoding cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		entries := env.Resolver.Entries()
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		w := cmd.OutOrStdout()
		for _, k := range keys {
			e := entries[k]
			fmt.Fprintf(w, "%-40s %-24s %s\n", k, e.Coordinates, time.UnixMilli(e.Timestamp).UTC().Format(time.RFC3339))
		}
		fmt.Fprintf(w, "%d cached locations\n", len(keys))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	rootCmd.AddCommand(cacheCmd)
}
