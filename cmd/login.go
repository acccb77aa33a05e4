package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/api"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/config"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the attendance service",
	Long: `Log in to the attendance service and store the issued token locally.
Subsequent commands use the stored session until it expires or is cleared
with 'attendance logout'.`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().Bool("admin", false, "Log in as administrator")
	loginCmd.Flags().String("email", "", "Email address (prompted when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	asAdmin := mustGetBool(cmd, "admin")

	email := mustGetString(cmd, "email")
	if email == "" {
		var err error
		email, err = promptLine("Email")
		if err != nil {
			return err
		}
	}
	password, err := promptPassword("Password")
	if err != nil {
		return err
	}

	client, err := api.New(cfg.API.URL, cfg.API.Timeout)
	if err != nil {
		return err
	}

	sess := &session.Session{
		Email:     email,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}

	ctx := cmd.Context()
	if asAdmin {
		result, err := client.LoginAdmin(ctx, email, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		sess.Role = session.RoleAdmin
		sess.Token = result.Token
		if result.Admin != nil {
			sess.Name = result.Admin.Name
		}
	} else {
		result, err := client.LoginStudent(ctx, email, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		sess.Role = session.RoleStudent
		sess.Token = result.Token
		if result.Student != nil {
			sess.Name = result.Student.Name
		}
	}

	if err := sessionStore(cfg).Save(sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	if sess.Name != "" {
		fmt.Printf("Logged in as %s (%s)\n", sess.Name, sess.Role)
	} else {
		fmt.Printf("Logged in as %s (%s)\n", sess.Email, sess.Role)
	}
	return nil
}
