package client

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// NewAccountCommand constructs the `account` command group.
func NewAccountCommand(baseURL BaseURLFunc) *cobra.Command {
	accountCmd := &cobra.Command{Use: "account", Short: "Account operations"}

	accountCmd.AddCommand(
		newAccountListCommand(baseURL),
		newAccountBalancesCommand(baseURL),
		newAccountSummaryCommand(baseURL),
	)

	return accountCmd
}

// newAccountListCommand constructs the `account list` subcommand.
func newAccountListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			includeInactive, _ := cmd.Flags().GetBool("include-inactive")

			q := url.Values{}
			if includeInactive {
				q.Set("include_inactive", "true")
			}
			var out any
			if err := getJSON(cmd.Context(), baseURL()+"/v1/accounts?"+q.Encode(), &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	listCmd.Flags().Bool("include-inactive", false, "Include deactivated accounts")
	return listCmd
}

// newAccountBalancesCommand constructs the `account balances` subcommand.
func newAccountBalancesCommand(baseURL BaseURLFunc) *cobra.Command {
	balancesCmd := &cobra.Command{
		Use:   "balances",
		Short: "Show per-account balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asOf, _ := cmd.Flags().GetString("as-of")

			q := url.Values{}
			if asOf != "" {
				q.Set("as_of", asOf)
			}
			var out struct {
				Balances []struct {
					AccountID uint64 `json:"account_id"`
					Name      string `json:"name"`
					Currency  string `json:"currency"`
					Formatted string `json:"formatted"`
				} `json:"balances"`
			}
			if err := getJSON(cmd.Context(), baseURL()+"/v1/accounts/balances?"+q.Encode(), &out); err != nil {
				return err
			}
			for _, b := range out.Balances {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s %s\n", b.AccountID, b.Name, b.Currency, b.Formatted)
			}
			return nil
		},
	}
	balancesCmd.Flags().String("as-of", "", "Balance cutoff date (YYYY-MM-DD)")
	return balancesCmd
}

// newAccountSummaryCommand constructs the `account summary` subcommand.
func newAccountSummaryCommand(baseURL BaseURLFunc) *cobra.Command {
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show one account's activity summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetUint64("id")
			if id == 0 {
				return fmt.Errorf("--id is required")
			}
			var out any
			if err := getJSON(cmd.Context(), fmt.Sprintf("%s/v1/accounts/summary?id=%d", baseURL(), id), &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	summaryCmd.Flags().Uint64("id", 0, "Account id")
	return summaryCmd
}
