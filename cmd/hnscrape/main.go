package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hnscrape",
		Short: "Scrape Hacker News listings into SQLite and export CSV/XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(scrapeCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(runCmd())

	return root
}

func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Run one scrape: fetch, parse, store, export",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape()
		},
	}
}

func exportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Re-export current store contents without scraping",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "all", "export format: csv, xlsx or all")
	return cmd
}

func statsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stored story count and the top-ranked stories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "max stories to show")
	return cmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start daemon scraping on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}
}
