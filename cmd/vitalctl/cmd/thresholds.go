package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/vitalwatch/internal/models"
	"github.com/good-yellow-bee/vitalwatch/internal/monitoring"
)

var (
	thresholdsAge        int
	thresholdsConditions []string
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Show personalized threshold bands",
	Long: `Show the threshold bands used to classify vital readings for a
patient of the given age and condition history.

Examples:
  # Adult defaults
  vitalctl thresholds

  # Senior with hypertension
  vitalctl thresholds --age 70 --conditions hypertension

  # JSON output
  vitalctl thresholds --age 8 -o json`,
	Run: runThresholds,
}

func init() {
	rootCmd.AddCommand(thresholdsCmd)

	thresholdsCmd.Flags().IntVar(&thresholdsAge, "age", monitoring.DefaultAge, "patient age in years")
	thresholdsCmd.Flags().StringSliceVar(&thresholdsConditions, "conditions", nil, "chronic conditions (e.g. hypertension,diabetes)")
}

func runThresholds(cmd *cobra.Command, args []string) {
	if thresholdsAge < 0 || thresholdsAge > 150 {
		PrintError("age must be between 0 and 150", true)
	}

	set := monitoring.ThresholdsFor(thresholdsAge, thresholdsConditions)

	if GetOutput() == "json" {
		data, _ := json.MarshalIndent(set, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Thresholds for age %d", thresholdsAge)
	if len(thresholdsConditions) > 0 {
		fmt.Printf(" with %s", strings.Join(thresholdsConditions, ", "))
	}
	fmt.Println()
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VITAL\tNORMAL\tCRITICAL\tUNIT")
	for _, t := range models.AllVitalTypes {
		th := set[t]
		fmt.Fprintf(w, "%s\t%g - %g\t%g - %g\t%s\n",
			t, th.Min, th.Max, th.Critical.Min, th.Critical.Max, th.Unit)
	}
	w.Flush()
}
