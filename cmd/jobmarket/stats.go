package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print a dataset summary",
	Long:  "Reads the database and prints counts, salary average and posting date bounds for rows above the salary floor.",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	st, err := openStore(cfg, setupLogger(debug))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	s, err := st.Stats(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read stats: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-20s %s\n", "Database", cfg.DatabasePath)
	fmt.Println(strings.Repeat("─", 44))
	fmt.Printf("%-20s %d\n", "Total jobs", s.TotalJobs)
	fmt.Printf("%-20s %d\n", "Unique companies", s.UniqueCompanies)
	fmt.Printf("%-20s %d\n", "Unique locations", s.UniqueLocations)
	fmt.Printf("%-20s %.0f\n", "Avg max salary", s.AvgMaxSalary)
	fmt.Printf("%-20s %.0f\n", "Salary floor", cfg.Pipeline.SalaryFloor)
	if s.EarliestPosting != "" {
		fmt.Printf("%-20s %s to %s\n", "Posting dates", s.EarliestPosting, s.LatestPosting)
	}
	return nil
}
