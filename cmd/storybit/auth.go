package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Prathap331/SB-Next/internal/credentials"
	"github.com/Prathap331/SB-Next/internal/prompt"
)

// createAuthCommand creates the auth command and its subcommands.
func createAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage your StoryBit account",
	}
	cmd.AddCommand(
		createSignUpCommand(),
		createLoginCommand(),
		createLogoutCommand(),
		createAuthStatusCommand(),
	)
	return cmd
}

func createSignUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openApp(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			prompter := prompt.NewLinerPrompter()
			fullName, err := prompt.RequiredInput(prompter, "Full name:", prompt.TextInput)
			if err != nil {
				_ = prompter.Close()
				return err //nolint:wrapcheck // prompt errors are user-facing
			}
			email, password, err := readCredentials(prompter)
			_ = prompter.Close()
			if err != nil {
				return err
			}

			user, err := a.Identity.SignUp(ctx, email, password, fullName)
			if err != nil {
				return fmt.Errorf("sign-up failed: %w", err)
			}
			if user.Email != "" {
				email = user.Email
			}
			_, _ = color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
				"Account created for %s. Confirm your email, then run 'storybit auth login'.\n", email)
			return nil
		},
	}
}

func createLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openApp(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			prompter := prompt.NewLinerPrompter()
			email, password, err := readCredentials(prompter)
			_ = prompter.Close()
			if err != nil {
				return err
			}

			blob, err := a.Identity.SignIn(ctx, email, password)
			if err != nil {
				return fmt.Errorf("sign-in failed: %w", err)
			}
			if err := a.Credentials.Save(ctx, blob); err != nil {
				return fmt.Errorf("failed to store session: %w", err)
			}

			status, err := a.Credentials.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to read session: %w", err)
			}
			printAuthStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func createLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openApp(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			if err := a.Credentials.Clear(ctx); err != nil {
				return fmt.Errorf("failed to sign out: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func createAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openApp(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			status, err := a.Credentials.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to read session: %w", err)
			}
			printAuthStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func readCredentials(prompter prompt.Prompter) (email, password string, err error) {
	email, err = prompt.RequiredInput(prompter, "Email:", prompt.TextInput)
	if err != nil {
		return "", "", err //nolint:wrapcheck // prompt errors are user-facing
	}
	password, err = prompt.RequiredInput(prompter, "Password:", prompt.PasswordInput)
	if errors.Is(err, prompt.ErrCancelled) {
		return "", "", err //nolint:wrapcheck // prompt errors are user-facing
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	return email, password, nil
}

func printAuthStatus(w io.Writer, status credentials.Status) {
	switch {
	case !status.SignedIn:
		_, _ = fmt.Fprintln(w, "Not signed in.")
	case status.Expired:
		_, _ = color.New(color.FgYellow).Fprintf(w,
			"Session for %s has expired, run 'storybit auth login'.\n", status.Email)
	case status.ExpiresAt != nil:
		_, _ = color.New(color.FgGreen).Fprintf(w, "Signed in as %s (expires %s).\n",
			status.Email, status.ExpiresAt.Local().Format(time.RFC1123))
	default:
		_, _ = color.New(color.FgGreen).Fprintf(w, "Signed in as %s.\n", status.Email)
	}
}
