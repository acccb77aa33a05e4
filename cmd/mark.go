package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/api"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/camera"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/config"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/session"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/workflow"
)

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Mark attendance with the camera",
	Long: `Mark attendance by capturing a frame from the camera and submitting it
for face verification. The camera stays open after a failed attempt so a
retry captures a fresh frame without renegotiating the device.`,
	RunE: runMark,
}

func init() {
	rootCmd.AddCommand(markCmd)

	markCmd.Flags().Int("burst", 0, "Capture N consecutive frames for liveness checking (minimum 3)")
	markCmd.Flags().Bool("no-retry", false, "Exit after the first attempt instead of asking to retry")
}

func runMark(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	client, _, err := authedClient(cfg, session.RoleStudent)
	if err != nil {
		return err
	}
	burst := mustGetInt(cmd, "burst")
	if burst != 0 && burst < 3 {
		return errors.New("--burst needs at least 3 frames")
	}
	noRetry := mustGetBool(cmd, "no-retry")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	tracker := workflow.NewTracker(client)
	if err := tracker.Refresh(ctx); err != nil {
		return handleUnauthorized(cfg, err)
	}
	if record := tracker.Record(); record != nil {
		fmt.Printf("Attendance already marked today at %s\n", record.Time)
		return nil
	}

	driver, err := camera.NewDriver(cfg.Camera)
	if err != nil {
		return err
	}
	cam := camera.NewSession(driver, cfg.Camera.Quality)

	opts := []workflow.Option{
		workflow.WithUnauthorizedHook(func() { _ = sessionStore(cfg).Clear() }),
	}
	if burst > 0 {
		var bar *progressbar.ProgressBar
		opts = append(opts, workflow.WithBurst(burst, func(i int) {
			if i == 0 {
				bar = progressbar.NewOptions(burst,
					progressbar.OptionSetDescription("Capturing frames"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetTheme(progressbar.Theme{
						Saucer:        "=",
						SaucerHead:    ">",
						SaucerPadding: " ",
						BarStart:      "[",
						BarEnd:        "]",
					}),
				)
			}
			_ = bar.Add(1)
		}))
	}
	runner := workflow.NewRunner(cam, client, tracker, opts...)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println("\nCancelling...")
		runner.Cancel()
		cancel()
	}()

	fmt.Printf("Opening camera (%s)...\n", driver.Name())
	if err := runner.Start(ctx); err != nil {
		if errors.Is(err, workflow.ErrGated) {
			fmt.Println("Attendance already marked today")
			return nil
		}
		return fmt.Errorf("camera failed: %w", err)
	}
	defer runner.Cancel()

	for {
		outcome, err := runner.Attempt(ctx)
		if err != nil {
			if errors.Is(err, workflow.ErrCancelled) || errors.Is(err, context.Canceled) {
				fmt.Println("Attendance pass cancelled")
				return nil
			}
			if errors.Is(err, api.ErrUnauthorized) {
				return handleUnauthorized(cfg, err)
			}
			fmt.Printf("Attempt failed: %v\n", err)
			if noRetry || !confirm("Try again?") {
				return err
			}
			continue
		}

		printOutcome(outcome)
		if outcome.Terminal() {
			return nil
		}
		if outcome.Kind == api.OutcomeAlreadyMarked {
			// Nothing left to submit today; the deferred cancel releases
			// the camera on the way out.
			return nil
		}
		if noRetry || !confirm("Try again?") {
			return nil
		}
	}
}

func printOutcome(outcome *api.Outcome) {
	switch outcome.Kind {
	case api.OutcomeMatched:
		fmt.Printf("Attendance marked (confidence %.1f%%)\n", outcome.Confidence)
		if outcome.Record != nil {
			fmt.Printf("  Recorded at %s on %s\n", outcome.Record.Time, outcome.Record.Date)
		}
		if outcome.Blinks > 0 {
			fmt.Printf("  Blinks detected: %d\n", outcome.Blinks)
		}
	case api.OutcomeAlreadyMarked:
		fmt.Println("Attendance already marked today")
	case api.OutcomeRetryable:
		fmt.Printf("Not verified: %s\n", outcome.Message)
		if outcome.HasConfidence {
			fmt.Printf("  Confidence %.1f%% (threshold %.0f%%)\n", outcome.Confidence, outcome.Threshold)
		}
		for _, suggestion := range outcome.Suggestions {
			fmt.Printf("  - %s\n", suggestion)
		}
	case api.OutcomeTransportError:
		fmt.Printf("Could not reach the service: %s\n", outcome.Message)
		if outcome.Details != "" {
			fmt.Printf("  %s\n", outcome.Details)
		}
	}
}
