package cmd

import (
	"errors"

	"github.com/kalemarkets/settler/src/server"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(initLedgerCmd)
}

var initLedgerCmd = &cobra.Command{
	Use:   "init-ledger",
	Short: "Bootstrap the contract ledger in the configured store",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		// One-shot command, release the root context when done
		defer cancel()

		ledger, err := server.NewLedger(ctx, conf)
		if err != nil {
			return
		}

		if ledger.Initialized() {
			return errors.New("ledger is already initialized")
		}

		return ledger.Bootstrap()
	},
}
