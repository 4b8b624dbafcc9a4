package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/cactusfleur/afrispiration/internal/geo"
	"github.com/spf13/cobra"
)

func newGeoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geo",
		Short: "Country lookups and the designer map",
	}

	resolve := &cobra.Command{
		Use:         "resolve <name>...",
		Short:       "Print the ISO 3166-1 alpha-2 code for each country name",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"store": "none"},
		RunE: func(cmd *cobra.Command, args []string) error {
			r := geo.Default()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			var unknown int
			for _, name := range args {
				code, ok := r.Resolve(name)
				if !ok {
					unknown++
					_, _ = fmt.Fprintf(tw, "%s\t?\n", name)
					continue
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", name, code, r.Name(code))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if unknown > 0 {
				return fmt.Errorf("%d name(s) did not resolve", unknown)
			}
			return nil
		},
	}

	var asJSON bool
	mapCmd := &cobra.Command{
		Use:   "map",
		Short: "Count designers per country",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.catalog.Map(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, data)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, c := range data.Countries {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Code, c.Name, c.Count)
			}
			for _, loc := range data.Unknown {
				_, _ = fmt.Fprintf(tw, "?\t%s\t\n", loc)
			}
			return tw.Flush()
		},
	}
	mapCmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	cmd.AddCommand(resolve, mapCmd)
	return cmd
}
