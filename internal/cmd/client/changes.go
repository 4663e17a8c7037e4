// Package client contains Cobra CLI commands for Tally.
package client

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// NewChangesCommand constructs the `changes` command group for the
// exportable movements change feed.
func NewChangesCommand(baseURL BaseURLFunc) *cobra.Command {
	changesCmd := &cobra.Command{Use: "changes", Short: "Exportable movement change feed"}

	changesCmd.AddCommand(
		newChangesListCommand(baseURL),
		newChangesAckCommand(baseURL),
	)

	return changesCmd
}

// newChangesListCommand constructs the `changes list` subcommand.
func newChangesListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pending exportable movement changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			since, _ := cmd.Flags().GetString("since")
			limit, _ := cmd.Flags().GetInt("limit")
			filter, _ := cmd.Flags().GetString("filter")

			q := url.Values{}
			if since != "" {
				q.Set("since", since)
			}
			if limit > 0 {
				q.Set("limit", fmt.Sprint(limit))
			}
			if filter != "" {
				q.Set("filter", filter)
			}
			var page any
			if err := getJSON(cmd.Context(), baseURL()+"/v1/exportables/changes?"+q.Encode(), &page); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	listCmd.Flags().String("since", "", "Resume after this change id instead of the saved checkpoint")
	listCmd.Flags().Int("limit", 0, "Max changes to return")
	listCmd.Flags().String("filter", "", "CEL filter (server-side)")
	return listCmd
}

// newChangesAckCommand constructs the `changes ack` subcommand.
func newChangesAckCommand(baseURL BaseURLFunc) *cobra.Command {
	ackCmd := &cobra.Command{
		Use:   "ack",
		Short: "Confirm a change feed checkpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			checkpoint, _ := cmd.Flags().GetUint64("checkpoint")
			body := map[string]uint64{"checkpoint_id": checkpoint}
			var resp any
			if err := postJSON(cmd.Context(), baseURL()+"/v1/exportables/changes/ack", body, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	ackCmd.Flags().Uint64("checkpoint", 0, "Checkpoint id returned by the feed")
	return ackCmd
}
