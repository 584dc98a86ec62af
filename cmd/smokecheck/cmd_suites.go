package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/kylerisse/smokecheck/pkg/suite"
	"github.com/spf13/cobra"
)

func newSuitesCmd(reg *suite.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "suites",
		Short: "List the available suites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SUITE\tDEFAULT URL\tTHRESHOLD\tBROWSER\tDESCRIPTION")
			for _, name := range reg.Names() {
				desc, err := reg.Describe(name)
				if err != nil {
					return err
				}
				browser := "no"
				if desc.NeedsBrowser {
					browser = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%.0f%%\t%s\t%s\n", desc.Name, desc.DefaultBaseURL, desc.Threshold*100, browser, desc.Summary)
			}
			return tw.Flush()
		},
	}
}
