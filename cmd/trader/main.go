package main

import (
	"fmt"
	"os"
	"strings"

	"ema-trader/internal/cli"
	"ema-trader/internal/config"
	"ema-trader/internal/logging"
)

// configDirArg scans the raw arguments for --config before cobra runs,
// since configuration must be loaded to build the command tree.
func configDirArg(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if dir, ok := strings.CutPrefix(arg, "--config="); ok {
			return dir
		}
	}
	return ""
}

func main() {
	configDir := configDirArg(os.Args[1:])
	if configDir == "" {
		configDir = os.Getenv("TRADER_CONFIG_DIR")
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger()

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
