package cmd

import (
	"VizFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动VizFM服务器",
	Long:  `启动VizFM可视化引擎的HTTP服务器，提供会话管理、场景控制和状态推送`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
