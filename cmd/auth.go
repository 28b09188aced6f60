package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/config"
	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/google"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Gmail and Google Sheets",
		Long: `Run the OAuth2 flow for the Google APIs. Prints an authorization URL
to open in a browser; paste the resulting code back to store a token.

The token is kept in the OS keyring when one is available, otherwise in
a local token file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd)
		},
	}

	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthClearCmd())
	return cmd
}

func runAuth(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	auth := google.NewAuthenticator(cfg.CredentialsPath, cfg.TokenPath)

	url, err := auth.AuthURL()
	if err != nil {
		return err
	}

	cmd.Println("Open this URL in your browser and authorize access:")
	cmd.Println()
	cmd.Println("  " + url)
	cmd.Println()
	cmd.Print("Paste the authorization code here: ")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read authorization code: %w", err)
		}
		return errors.New("no authorization code entered")
	}
	code := scanner.Text()
	if code == "" {
		return errors.New("no authorization code entered")
	}

	if err := auth.Exchange(context.Background(), code); err != nil {
		return err
	}
	cmd.Println("Token stored. You can now run the sync command.")
	return nil
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a Google token is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			auth := google.NewAuthenticator(cfg.CredentialsPath, cfg.TokenPath)
			if auth.HasToken() {
				cmd.Println("Authorized: a Google token is stored.")
			} else {
				cmd.Println("Not authorized: run `lazy-email-to-spreadsheet auth` first.")
			}
			return nil
		},
	}
}

func newAuthClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored Google token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			auth := google.NewAuthenticator(cfg.CredentialsPath, cfg.TokenPath)
			if err := auth.ClearToken(); err != nil {
				return err
			}
			cmd.Println("Token removed.")
			return nil
		},
	}
}
