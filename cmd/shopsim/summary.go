package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/shopsim-xyz/go-shopsim/storage"
)

func summary(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	dbPath := fs.String("db", "shopsim.db", "Run database path")
	limit := fs.Int("limit", 20, "Number of runs to show")
	runID := fs.String("run", "", "Show day reports for one run")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: shopsim summary [options]

Summarize persisted simulation runs.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.New(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if *runID != "" {
		return printDayReports(store, *runID)
	}
	return printRuns(store, *limit)
}

func printRuns(store *storage.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %5s  %12s  %7s  %6s  %s\n",
		"RUN", "SEED", "DAYS", "BALANCE", "SERVED", "FINES", "OUTCOME")
	for _, run := range runs {
		fmt.Printf("%-36s  %-10d  %5d  %12.0f  %7d  %6d  %s\n",
			run.ID, run.Seed, run.Days, run.FinalBalance, run.Served, run.FinesPaid, run.Outcome)
	}
	return nil
}

func printDayReports(store *storage.Store, runID string) error {
	reports, err := store.DayReports(runID)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Printf("No day reports for run %s.\n", runID)
		return nil
	}

	fmt.Printf("%5s  %12s  %12s  %12s  %s\n", "DAY", "INCOME", "EXPENSES", "BALANCE", "CRITICAL")
	for _, r := range reports {
		fmt.Printf("%5d  %12.0f  %12.0f  %12.0f  %8d\n",
			r.Day, r.Income, r.Expenses, r.Balance, r.CriticalDays)
	}
	return nil
}
