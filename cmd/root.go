package cmd

import (
	"context"

	"github.com/michaelpento.lv/lendvault/utils"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "lendvault",
	Short: "An over-collateralized lending engine",
	Long: `A lending engine tracking deposits and borrows against Chainlink
prices, rejecting operations that would leave an account under-collateralized
and exposing unsafe accounts to liquidation.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "lendvault.yaml", "config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initConfig() {
	utils.InitLogger(debug)
}
