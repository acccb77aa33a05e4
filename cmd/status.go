package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/config"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/session"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/workflow"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the logged-in identity and today's attendance",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	client, sess, err := authedClient(cfg, "")
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if sess.Role == session.RoleAdmin {
		admin, err := client.AdminProfile(ctx)
		if err != nil {
			return handleUnauthorized(cfg, err)
		}
		fmt.Printf("Logged in as %s (admin, %s)\n", admin.Name, admin.Email)
		return nil
	}

	student, err := client.StudentProfile(ctx)
	if err != nil {
		return handleUnauthorized(cfg, err)
	}
	fmt.Printf("Logged in as %s (student, roll %s)\n", student.Name, student.RollNumber)

	tracker := workflow.NewTracker(client)
	if err := tracker.Refresh(ctx); err != nil {
		return handleUnauthorized(cfg, err)
	}
	if record := tracker.Record(); record != nil {
		fmt.Printf("Attendance marked today at %s (confidence %.1f%%)\n", record.Time, record.Confidence)
	} else {
		fmt.Println("Attendance not marked today")
	}
	return nil
}
