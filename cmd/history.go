package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/config"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/session"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show your attendance history",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	client, _, err := authedClient(cfg, session.RoleStudent)
	if err != nil {
		return err
	}

	records, err := client.AttendanceHistory(cmd.Context())
	if err != nil {
		return handleUnauthorized(cfg, err)
	}
	if len(records) == 0 {
		fmt.Println("No attendance recorded yet")
		return nil
	}

	fmt.Printf("%-12s %-10s %s\n", "DATE", "TIME", "CONFIDENCE")
	for _, record := range records {
		fmt.Printf("%-12s %-10s %.1f%%\n", record.Date, record.Time, record.Confidence)
	}
	return nil
}
