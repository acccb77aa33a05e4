package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/api"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/config"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new student or administrator account",
	Long: `Register a new student account with the attendance service.
The account can log in immediately, but attendance marking requires an
administrator to enroll a reference photo first.

With --admin, register an administrator account instead.`,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().Bool("admin", false, "Register an administrator account")
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if mustGetBool(cmd, "admin") {
		return registerAdmin(cmd, cfg)
	}

	draft := api.RegistrationDraft{}
	var err error
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
	if draft.Password, err = promptPassword("Password"); err != nil {
		return err
	}

	client, err := api.New(cfg.API.URL, cfg.API.Timeout)
	if err != nil {
		return err
	}
	student, err := client.RegisterStudent(cmd.Context(), draft)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Printf("Registered %s (roll %s)\n", student.Name, student.RollNumber)
	fmt.Println("Ask an administrator to enroll your reference photo before marking attendance.")
	return nil
}

func registerAdmin(cmd *cobra.Command, cfg *config.Config) error {
	draft := api.AdminRegistration{}
	var err error
	if draft.Name, err = promptLine("Full name"); err != nil {
		return err
	}
	if draft.Username, err = promptLine("Username"); err != nil {
		return err
	}
	if draft.Email, err = promptLine("Email"); err != nil {
		return err
	}
	if draft.Password, err = promptPassword("Password"); err != nil {
		return err
	}

	client, err := api.New(cfg.API.URL, cfg.API.Timeout)
	if err != nil {
		return err
	}
	admin, err := client.RegisterAdmin(cmd.Context(), draft)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Printf("Registered administrator %s (%s)\n", admin.Name, admin.Username)
	return nil
}
