package main

import (
	"fmt"
	"os"

	"liquidation-export/internal/config"
	"liquidation-export/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "liquidation-export",
	Short: "Settlement reports from the debt records base",
	Long: `liquidation-export reads the debt records base (an XLSX workbook or the
postgres table), aggregates the liquidation of a taxpayer for a campaign
and renders it as a PDF or XLSX document.

  liquidation-export serve
  liquidation-export render --ruc 20212246698 --campaign REDIRECCIONAMIENTO
  liquidation-export campaigns --ruc 20212246698
  liquidation-export stats`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads .env, the configuration and the global logger.
func setup() (config.AppConfig, *zap.Logger, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logger.New(level)
	if err != nil {
		return cfg, nil, err
	}
	zap.ReplaceGlobals(log)

	if envErr != nil {
		log.Debug("no .env file found, using system env or defaults")
	}
	return cfg, log, nil
}
