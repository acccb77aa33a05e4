package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/api"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/config"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/session"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Show attendance reports (admin)",
	Long: `Show attendance reports across all students. Filters narrow the result;
the name and course filters match substrings regardless of case and
diacritics.`,
	RunE: runReports,
}

func init() {
	rootCmd.AddCommand(reportsCmd)

	reportsCmd.Flags().String("name", "", "Filter by student name")
	reportsCmd.Flags().String("roll", "", "Filter by roll number (exact)")
	reportsCmd.Flags().String("date", "", "Filter by date (YYYY-MM-DD)")
	reportsCmd.Flags().String("course", "", "Filter by course")
}

func runReports(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	client, _, err := authedClient(cfg, session.RoleAdmin)
	if err != nil {
		return err
	}

	filter := api.ReportFilter{
		StudentName: mustGetString(cmd, "name"),
		RollNumber:  mustGetString(cmd, "roll"),
		Date:        mustGetString(cmd, "date"),
		Course:      mustGetString(cmd, "course"),
	}
	reports, err := client.AttendanceReports(cmd.Context(), filter)
	if err != nil {
		return handleUnauthorized(cfg, err)
	}
	if len(reports) == 0 {
		fmt.Println("No attendance records match")
		return nil
	}

	fmt.Printf("%-12s %-10s %-25s %-12s %s\n", "DATE", "TIME", "NAME", "ROLL", "CONFIDENCE")
	for _, report := range reports {
		fmt.Printf("%-12s %-10s %-25s %-12s %.1f%%\n",
			report.Date, report.Time, report.Student.Name, report.Student.RollNumber, report.Confidence)
	}
	fmt.Printf("%d records\n", len(reports))
	return nil
}
