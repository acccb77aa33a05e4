package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/api"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/config"
	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/session"
)

// sessionStore builds the session store from configuration.
func sessionStore(cfg *config.Config) *session.Store {
	return session.NewStore(cfg.Session.Path)
}

// authedClient loads the stored session and builds an API client carrying
// its token. The role argument restricts which identity may run the
// command; pass "" to accept any role.
func authedClient(cfg *config.Config, role string) (*api.Client, *session.Session, error) {
	store := sessionStore(cfg)
	sess, err := store.Load()
	if err != nil {
		if errors.Is(err, session.ErrNotLoggedIn) {
			return nil, nil, errors.New("not logged in, run 'attendance login' first")
		}
		return nil, nil, err
	}
	if role != "" && sess.Role != role {
		return nil, nil, fmt.Errorf("this command requires a %s login, you are logged in as %s", role, sess.Role)
	}
	client, err := api.NewFromToken(cfg.API.URL, sess.Token, cfg.API.Timeout)
	if err != nil {
		return nil, nil, err
	}
	return client, sess, nil
}

// promptLine reads one line of input with a label.
func promptLine(label string) (string, error) {
	fmt.Printf("%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echoing it. Falls back to plain
// line input when stdin is not a terminal (tests, pipes).
func promptPassword(label string) (string, error) {
	fmt.Printf("%s: ", label)
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(password), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question, defaulting to no.
func confirm(question string) bool {
	answer, err := promptLine(question + " [y/N]")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// handleUnauthorized clears the stored session when the server stopped
// accepting the credential, so the next command prompts for a fresh login.
func handleUnauthorized(cfg *config.Config, err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		_ = sessionStore(cfg).Clear()
		return errors.New("your session is no longer valid, run 'attendance login' again")
	}
	return err
}
