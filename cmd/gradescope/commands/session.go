package commands

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gradescope-cli/lib/scrapers/gradescope/core"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
	loginRemember bool
	logoutForce   bool
)

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "The account email, read from stdin when empty.")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "The account password, falls back to $GRADESCOPE_PASSWORD or stdin.")
	loginCmd.Flags().BoolVar(&loginRemember, "remember", true, "Keep the session across runs.")
	logoutCmd.Flags().BoolVar(&logoutForce, "force", false, "Log out even when the session is remembered.")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

var loginCmd = &cobra.Command{
	Use:   "login [--email <email>] [--password <password>] [--remember=false]",
	Short: "Logs into the portal, remembering the session by default.",
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)

		email := loginEmail
		password := loginPassword
		if password == "" {
			password = os.Getenv("GRADESCOPE_PASSWORD")
		}
		var err error
		if email == "" {
			email, err = prompt(reader, "Email: ")
			if err != nil {
				return err
			}
		}
		if password == "" {
			password, err = prompt(reader, "Password: ")
			if err != nil {
				return err
			}
		}

		err = client.Login(cmd.Context(), email, password, loginRemember)
		if errors.Is(err, core.InvalidCredentials) || errors.Is(err, core.MissingCredentials) {
			return fmt.Errorf("login failed: %w", err)
		}
		return err
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout [--force]",
	Short: "Logs out of the portal and clears the local cache.",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := client.Logout(cmd.Context(), logoutForce)
		if errors.Is(err, core.LogoutFailed) {
			// already reported as a warning
			return nil
		}
		if err != nil {
			return err
		}
		if result == core.LogoutSkipped {
			slog.Info("session is remembered, pass --force to log out anyway")
		}
		return nil
	},
}
