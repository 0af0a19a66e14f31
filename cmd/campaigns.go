package main

import (
	"fmt"
	"sort"

	"liquidation-export/internal/domain"
	"liquidation-export/internal/report"

	"github.com/spf13/cobra"
)

var campaignsRUC string

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "List the campaigns with records for a taxpayer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, err := domain.ParseIdentifier(campaignsRUC)
		if err != nil {
			return err
		}

		cfg, log, err := setup()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		campaigns := a.store.CampaignsFor(id)
		if len(campaigns) == 0 {
			return fmt.Errorf("no records for %s", report.FormatIdentifier(id))
		}
		for _, c := range campaigns {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", c, len(a.store.RecordsFor(id, c)))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the loaded records base",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "records\t%d\n", a.store.Len())
		fmt.Fprintf(out, "identifiers\t%d\n", len(a.store.DistinctIdentifiers()))

		counts := a.store.CampaignCaseCounts()
		names := make([]string, 0, len(counts))
		for c := range counts {
			names = append(names, string(c))
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(out, "%s\t%d\n", n, counts[domain.Campaign(n)])
		}
		return nil
	},
}

func init() {
	campaignsCmd.Flags().StringVar(&campaignsRUC, "ruc", "", "taxpayer identifier (RUC)")
	_ = campaignsCmd.MarkFlagRequired("ruc")

	rootCmd.AddCommand(campaignsCmd, statsCmd)
}
