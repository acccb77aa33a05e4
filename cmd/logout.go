package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/config"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := sessionStore(cfg).Clear(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
