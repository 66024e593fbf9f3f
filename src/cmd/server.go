package cmd

import (
	"github.com/kalemarkets/settler/src/server"
	"github.com/kalemarkets/settler/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(serverCmd)
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the settlement engine and its REST gateway",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := server.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		<-ctx.Done()

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("server-cmd")
		log.Debug("Finished server command")
		return
	},
}
