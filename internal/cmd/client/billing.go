package client

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// NewBillingCommand constructs the `billing` command group for the combined
// billing synchronization feed.
func NewBillingCommand(baseURL BaseURLFunc) *cobra.Command {
	billingCmd := &cobra.Command{Use: "billing", Short: "Billing synchronization feed"}

	billingCmd.AddCommand(
		newBillingMovementsCommand(baseURL),
		newBillingAckCommand(baseURL),
		newBillingTrimCommand(baseURL),
	)

	return billingCmd
}

// newBillingMovementsCommand constructs the `billing movements` subcommand.
func newBillingMovementsCommand(baseURL BaseURLFunc) *cobra.Command {
	movementsCmd := &cobra.Command{
		Use:   "movements",
		Short: "List pending billing transaction events and exportable changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			since, _ := cmd.Flags().GetString("since")
			limit, _ := cmd.Flags().GetInt("limit")
			changesSince, _ := cmd.Flags().GetString("changes-since")
			changesLimit, _ := cmd.Flags().GetInt("changes-limit")

			q := url.Values{}
			if since != "" {
				q.Set("since", since)
			}
			if limit > 0 {
				q.Set("limit", fmt.Sprint(limit))
			}
			if changesSince != "" {
				q.Set("changes_since", changesSince)
			}
			if changesLimit > 0 {
				q.Set("changes_limit", fmt.Sprint(changesLimit))
			}
			var mv any
			if err := getJSON(cmd.Context(), baseURL()+"/v1/billing/movements?"+q.Encode(), &mv); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), mv)
		},
	}
	movementsCmd.Flags().String("since", "", "Resume after this event id instead of the saved checkpoint")
	movementsCmd.Flags().Int("limit", 0, "Max events to return")
	movementsCmd.Flags().String("changes-since", "", "Resume the exportable feed after this change id")
	movementsCmd.Flags().Int("changes-limit", 0, "Max exportable changes to return")
	return movementsCmd
}

// newBillingAckCommand constructs the `billing ack` subcommand.
func newBillingAckCommand(baseURL BaseURLFunc) *cobra.Command {
	ackCmd := &cobra.Command{
		Use:   "ack",
		Short: "Confirm billing and exportable checkpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			checkpoint, _ := cmd.Flags().GetUint64("checkpoint")
			body := map[string]any{"checkpoint_id": checkpoint}
			if cmd.Flags().Changed("changes-checkpoint") {
				cc, _ := cmd.Flags().GetUint64("changes-checkpoint")
				body["changes_checkpoint_id"] = cc
			}
			var resp any
			if err := postJSON(cmd.Context(), baseURL()+"/v1/billing/movements/ack", body, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	ackCmd.Flags().Uint64("checkpoint", 0, "Billing checkpoint id returned by the feed")
	ackCmd.Flags().Uint64("changes-checkpoint", 0, "Exportable changes checkpoint id")
	return ackCmd
}

// newBillingTrimCommand constructs the `billing trim` subcommand.
func newBillingTrimCommand(baseURL BaseURLFunc) *cobra.Command {
	trimCmd := &cobra.Command{
		Use:   "trim",
		Short: "Drop retained billing events at or below the confirmed checkpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp any
			if err := postJSON(cmd.Context(), baseURL()+"/v1/billing/movements/trim", nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	return trimCmd
}
