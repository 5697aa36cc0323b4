package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/erazemk/reunite/internal/catalog"
	"github.com/erazemk/reunite/internal/imaging"
	"github.com/erazemk/reunite/internal/importer"
	"github.com/erazemk/reunite/internal/matching"
	"github.com/erazemk/reunite/internal/model"
	"github.com/erazemk/reunite/internal/store"
)

func (a *app) hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <image>",
		Short: "Print the structural hashes and dominant color of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			img, err := imaging.Decode(f)
			if err != nil {
				return err
			}
			probe, err := matching.NewProbe(img)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "full:   %s\n", probe.Full)
			fmt.Fprintf(out, "legacy: %s\n", probe.Legacy)
			if c := probe.Color; c != nil {
				fmt.Fprintf(out, "color:  #%02x%02x%02x\n", c.R, c.G, c.B)
			}
			return nil
		},
	}
}

func (a *app) matchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <image>",
		Short: "Rank approved items against a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			scanner := &matching.Scanner{
				Scorer: a.scorer(),
				Candidates: func(ctx context.Context) ([]model.Item, error) {
					return store.ListItems(ctx, database, model.ItemStatusApproved)
				},
			}
			matches, err := scanner.Run(cmd.Context(), data)
			if err != nil {
				return err
			}

			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches above the confidence threshold.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CONFIDENCE\tSTRUCT\tCOLOR\tID\tTITLE\tLOCATION")
			for _, m := range matches {
				fmt.Fprintf(w, "%d%%\t%d\t%.1f\t%s\t%s\t%s\n",
					m.Confidence, m.StructScore, m.ColorScore, m.Item.ID, m.Item.Title, m.Item.Location)
			}
			return w.Flush()
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	var f catalog.Filters
	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search the approved inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Search = strings.Join(args, " ")

			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			items, err := store.ListItems(cmd.Context(), database, "")
			if err != nil {
				return err
			}
			res := catalog.Query(items, f)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Summary())
			if len(res.Items) == 0 {
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tID\tTITLE\tCATEGORY\tLOCATION")
			for _, it := range res.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.DateFound, it.ID, it.Title, it.Category, it.Location)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&f.Category, "category", "c", "", "exact category")
	cmd.Flags().StringVarP(&f.Location, "location", "L", "", "location substring")
	cmd.Flags().StringVarP(&f.Sort, "sort", "s", catalog.SortNewest, "newest or oldest")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var opts importer.Options
	cmd := &cobra.Command{
		Use:   "import <export.json|->",
		Short: "Import items and claims from a JSON export",
		Long: `Import items and claims from a JSON export of the previous catalog.
Embedded data-URL photos are stored in the configured image backend and
records that already exist are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			if opts.Images, err = a.imageStore(cmd.Context(), database); err != nil {
				return err
			}
			opts.MaxDimension = a.cfg.Images.MaxDimension

			rep, err := importer.Import(cmd.Context(), database, data, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().BoolVar(&opts.Rehash, "rehash", false, "recompute signatures from embedded photos")
	return cmd
}

func (a *app) reindexCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Recompute 256-bit signatures from stored photos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			images, err := a.imageStore(cmd.Context(), database)
			if err != nil {
				return err
			}

			res, err := importer.Reindex(cmd.Context(), database, images, all)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "recompute every item, not just legacy and missing signatures")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
