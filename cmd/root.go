package cmd

import (
	"fmt"
	"os"

	"VizFM/logger"

	"github.com/spf13/cobra"
)

var logPath string

var rootCmd = &cobra.Command{
	Use:   "vizfm",
	Short: "VizFM is an audio-reactive visual scene engine.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(os.Getenv("LOG_LEVEL")),
			OutputPath: logPath,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "日志文件路径（留空仅输出到控制台）")
}
