package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cvebot/internal/config"
	"cvebot/internal/nvd"
	"cvebot/internal/telemetry"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cvebot",
	Short: "CVE query bot for Slack and the terminal",
	Long: `cvebot answers CVE queries against the NVD vulnerability database.

Run 'cvebot serve' to connect the Slack bot, or use the lookup, search
and latest subcommands for one-shot queries from a terminal.`,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	config.Load(cfgFile)
	telemetry.InitLogger(viper.GetBool("verbose"), viper.GetString("log_file"))
}

func newNVDClient() *nvd.Client {
	client := nvd.NewClient()
	if base := viper.GetString("nvd.base_url"); base != "" {
		client.BaseURL = base
	}
	return client
}
