package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the Tally client.
// It registers the changes, billing, and account command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "tally",
		Short: "Tally client commands",
	}
	root.AddCommand(NewChangesCommand(baseURL))
	root.AddCommand(NewBillingCommand(baseURL))
	root.AddCommand(NewAccountCommand(baseURL))
	return root
}
