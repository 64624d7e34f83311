package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pacelink.app/relay/internal/model"
)

var subscriptionsCmd = &cobra.Command{
	Use:     "subscriptions",
	Aliases: []string{"subs"},
	Short:   "Manage the Strava push subscription",
}

var createFlags struct {
	callbackURL string
}

var subscriptionsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the push subscription for this relay",
	Long: `Create asks Strava to push events to the relay's webhook. Strava
immediately calls the callback URL with a verification request, so the
server must already be reachable there.`,
	Args: cobra.NoArgs,
	RunE: runSubscriptionsCreate,
}

var subscriptionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List push subscriptions",
	Args:  cobra.NoArgs,
	RunE:  runSubscriptionsList,
}

var subscriptionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a push subscription",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubscriptionsDelete,
}

func init() {
	rootCmd.AddCommand(subscriptionsCmd)
	subscriptionsCmd.AddCommand(subscriptionsCreateCmd, subscriptionsListCmd, subscriptionsDeleteCmd)

	subscriptionsCreateCmd.Flags().StringVar(&createFlags.callbackURL, "callback-url", "", "override the callback URL (default PUBLIC_URL/strava/webhook)")
}

func runSubscriptionsCreate(cmd *cobra.Command, args []string) error {
	callbackURL := createFlags.callbackURL
	if callbackURL == "" {
		callbackURL = cfg.WebhookCallbackURL()
	}

	res, err := services.Subscriptions().Create(cmd.Context(), callbackURL, cfg.Webhook.VerifyToken)
	if err != nil {
		return err
	}

	if res.Outcome == model.SubscriptionAlreadyExists {
		fmt.Println("A subscription already exists. Run `stravactl subscriptions list` to see it.")
		return nil
	}
	fmt.Printf("Created subscription %d\n", res.Subscription.ID)
	fmt.Printf("Callback: %s\n", callbackURL)
	return nil
}

func runSubscriptionsList(cmd *cobra.Command, args []string) error {
	subs, err := services.Subscriptions().List(cmd.Context())
	if err != nil {
		return err
	}

	if len(subs) == 0 {
		fmt.Println("No subscriptions found.")
		return nil
	}

	fmt.Printf("%-10s  %-20s  %s\n", "ID", "CREATED", "CALLBACK")
	for _, s := range subs {
		fmt.Printf("%-10d  %-20s  %s\n", s.ID, s.CreatedAt, s.CallbackURL)
	}
	return nil
}

func runSubscriptionsDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid subscription id %q", args[0])
	}

	if err := services.Subscriptions().Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("Deleted subscription %d\n", id)
	return nil
}
