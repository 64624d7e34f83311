package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pacelink.app/relay/common/logger"
	"pacelink.app/relay/internal/model"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect or refresh the stored Strava credential",
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored credential with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runTokenShow,
}

var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the refresh token now and store the new pair",
	Args:  cobra.NoArgs,
	RunE:  runTokenRefresh,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenShowCmd, tokenRefreshCmd)
}

func runTokenShow(cmd *cobra.Command, args []string) error {
	cred, err := services.Credentials().Current(cmd.Context())
	if err != nil {
		return err
	}
	printCredential(cred)
	return nil
}

func runTokenRefresh(cmd *cobra.Command, args []string) error {
	creds := services.Credentials()
	if err := creds.Refresh(cmd.Context()); err != nil {
		return err
	}

	cred, err := creds.Current(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println("Refreshed.")
	printCredential(cred)
	return nil
}

func printCredential(cred *model.Credential) {
	expires := time.Unix(cred.ExpiresAt, 0).UTC()
	fmt.Printf("Installation:  %s\n", cred.InstallationID)
	fmt.Printf("Access token:  %s\n", logger.Mask(cred.AccessToken))
	fmt.Printf("Refresh token: %s\n", logger.Mask(cred.RefreshToken))
	fmt.Printf("Scope:         %s\n", cred.Scope)
	fmt.Printf("Expires:       %s (in %s)\n", expires.Format(time.RFC3339), cred.ExpiresIn(time.Now()).Round(time.Second))
	if cred.SavedAt > 0 {
		fmt.Printf("Saved:         %s\n", time.Unix(cred.SavedAt, 0).UTC().Format(time.RFC3339))
	}
}
