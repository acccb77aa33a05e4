package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/api"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/config"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/session"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Manage enrolled students (admin)",
}

var studentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all students",
	RunE:  runStudentsList,
}

var studentsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one student",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentsShow,
}

var studentsUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a student's profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentsUpdate,
}

var studentsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a student",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudentsDelete,
}

func init() {
	rootCmd.AddCommand(studentsCmd)
	studentsCmd.AddCommand(studentsListCmd)
	studentsCmd.AddCommand(studentsShowCmd)
	studentsCmd.AddCommand(studentsUpdateCmd)
	studentsCmd.AddCommand(studentsDeleteCmd)

	studentsUpdateCmd.Flags().String("name", "", "New name")
	studentsUpdateCmd.Flags().String("email", "", "New email")
	studentsUpdateCmd.Flags().String("roll", "", "New roll number")
	studentsUpdateCmd.Flags().String("course", "", "New course")

	studentsDeleteCmd.Flags().Bool("force", false, "Delete without confirmation")
}

func studentID(args []string) (int, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid student id %q", args[0])
	}
	return id, nil
}

func runStudentsList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	client, _, err := authedClient(cfg, session.RoleAdmin)
	if err != nil {
		return err
	}
	students, err := client.ListStudents(cmd.Context())
	if err != nil {
		return handleUnauthorized(cfg, err)
	}
	if len(students) == 0 {
		fmt.Println("No students enrolled")
		return nil
	}
	fmt.Printf("%-5s %-25s %-12s %s\n", "ID", "NAME", "ROLL", "COURSE")
	for _, student := range students {
		fmt.Printf("%-5d %-25s %-12s %s\n", student.ID, student.Name, student.RollNumber, student.Course)
	}
	return nil
}

func runStudentsShow(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	client, _, err := authedClient(cfg, session.RoleAdmin)
	if err != nil {
		return err
	}
	id, err := studentID(args)
	if err != nil {
		return err
	}
	student, err := client.GetStudent(cmd.Context(), id)
	if err != nil {
		return handleUnauthorized(cfg, err)
	}
	fmt.Printf("ID:     %d\n", student.ID)
	fmt.Printf("Name:   %s\n", student.Name)
	fmt.Printf("Email:  %s\n", student.Email)
	fmt.Printf("Roll:   %s\n", student.RollNumber)
	fmt.Printf("Course: %s\n", student.Course)
	return nil
}

func runStudentsUpdate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	client, _, err := authedClient(cfg, session.RoleAdmin)
	if err != nil {
		return err
	}
	id, err := studentID(args)
	if err != nil {
		return err
	}

	update := api.StudentUpdate{}
	set := func(dst **string, flag string) {
		if value := mustGetString(cmd, flag); value != "" {
			*dst = &value
		}
	}
	set(&update.Name, "name")
	set(&update.Email, "email")
	set(&update.RollNumber, "roll")
	set(&update.Course, "course")
	if update.Name == nil && update.Email == nil && update.RollNumber == nil && update.Course == nil {
		return fmt.Errorf("nothing to update, pass at least one of --name, --email, --roll, --course")
	}

	student, err := client.UpdateStudent(cmd.Context(), id, update)
	if err != nil {
		return handleUnauthorized(cfg, err)
	}
	fmt.Printf("Updated %s (id %d)\n", student.Name, student.ID)
	return nil
}

func runStudentsDelete(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	client, _, err := authedClient(cfg, session.RoleAdmin)
	if err != nil {
		return err
	}
	id, err := studentID(args)
	if err != nil {
		return err
	}
	if !mustGetBool(cmd, "force") && !confirm(fmt.Sprintf("Delete student %d and their attendance history?", id)) {
		fmt.Println("Aborted")
		return nil
	}
	if err := client.DeleteStudent(cmd.Context(), id); err != nil {
		return handleUnauthorized(cfg, err)
	}
	fmt.Printf("Deleted student %d\n", id)
	return nil
}
