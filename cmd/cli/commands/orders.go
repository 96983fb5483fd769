package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newOrdersCmd() *cobra.Command {
	ordersCmd := &cobra.Command{
		Use:   "purchase-order",
		Short: "Send purchase orders through the mail relay",
	}

	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Mail a purchase order, to the configured default receiver unless --to is given",
		RunE: func(cmd *cobra.Command, _ []string) error {
			to, _ := cmd.Flags().GetString(flagTo)
			resp, err := apiClient.SendPurchaseOrder(cmd.Context(), to)
			if err != nil {
				return fmt.Errorf("error sending purchase order: %w", err)
			}
			return printJSON(cmd, resp)
		},
	}
	sendCmd.Flags().String(flagTo, "", "Recipient address")
	ordersCmd.AddCommand(sendCmd)
	return ordersCmd
}
