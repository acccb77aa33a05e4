package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/api"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/camera"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/config"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/session"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a new student with a reference photo (admin)",
	Long: `Enroll a new student: collect the profile, capture a reference photo
from the camera, verify that a face is detectable and create the student.
The profile and photo are submitted as one atomic request.`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	client, _, err := authedClient(cfg, session.RoleAdmin)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	draft := api.EnrollmentDraft{}
	if draft.Name, err = promptLine("Full name"); err != nil {
		return err
	}
	if draft.Email, err = promptLine("Email"); err != nil {
		return err
	}
	if draft.RollNumber, err = promptLine("Roll number"); err != nil {
		return err
	}
	if draft.Course, err = promptLine("Course"); err != nil {
		return err
	}
	if draft.Password, err = promptPassword("Initial password"); err != nil {
		return err
	}

	driver, err := camera.NewDriver(cfg.Camera)
	if err != nil {
		return err
	}
	cam := camera.NewSession(driver, cfg.Camera.Quality)

	fmt.Printf("Opening camera (%s)...\n", driver.Name())
	if err := cam.Open(ctx); err != nil {
		return fmt.Errorf("camera failed: %w", err)
	}
	defer cam.Close()

	for {
		if !confirm("Capture reference photo now?") {
			fmt.Println("Enrollment aborted, nothing was created")
			return nil
		}
		frame, err := cam.Capture(ctx)
		if err != nil {
			return fmt.Errorf("capture failed: %w", err)
		}

		// Preview the encoding so a bad frame is caught before the student
		// is created.
		if _, err := client.CaptureFaceEncoding(ctx, frame); err != nil {
			fmt.Printf("Frame rejected: %v\n", err)
			continue
		}
		fmt.Println("Face detected in the captured frame")

		if !confirm(fmt.Sprintf("Enroll %s with this photo?", draft.Name)) {
			continue
		}
		draft.Frame = frame

		student, err := client.CreateStudent(ctx, draft)
		if err != nil {
			return handleUnauthorized(cfg, err)
		}
		fmt.Printf("Enrolled %s (id %d, roll %s)\n", student.Name, student.ID, student.RollNumber)
		return nil
	}
}
