package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ukcpup/internal/airac"
)

var (
	cycleDate string
	cycleNext bool
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Show the current AIRAC release cycle",
	Long: `Show the AIRAC release cycle for today or a given date, together with the
release tag used by the controller pack repository.`,
	Run: runCycle,
}

func init() {
	cycleCmd.Flags().StringVar(&cycleDate, "date", "", "Date to resolve (YYYY-MM-DD, default today)")
	cycleCmd.Flags().BoolVar(&cycleNext, "next", false, "Show the following cycle instead")
	rootCmd.AddCommand(cycleCmd)
}

func runCycle(cmd *cobra.Command, args []string) {
	calc := airac.NewCalculator()

	index, err := calc.CycleIndex(cycleDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	start := calc.CycleStartDate(index, cycleNext)
	if cycleNext {
		index++
	}

	fmt.Printf("Cycle:\t%d\n", index)
	fmt.Printf("Start:\t%s\n", start.Format("2006-01-02"))
	fmt.Printf("Tag:\t%s\n", start.Format("2006/01"))
}
