package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/clash-override/internal/catalog"
)

func newRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "列出内置的地区分组",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tMATCH")
			for _, r := range catalog.Regions() {
				typ := "-"
				if r.Type.Valid() {
					typ = r.Type.String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Code, r.Name, typ, r.Matcher.String())
			}
			return tw.Flush()
		},
	}
}
