package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"VizFM/config"
	"VizFM/core/session"
	"VizFM/core/vis"

	"github.com/spf13/cobra"
)

var (
	renderSource     string
	renderOutput     string
	renderDuration   float64
	renderWidth      int
	renderHeight     int
	renderVisualizer string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "离线渲染一段音轨",
	Long: `不启动HTTP服务器，直接加载音轨并录制可视化画面到本地文件。
渲染按帧循环实时进行，编码器消费的是真实的渲染表面。`,
	Run: func(cmd *cobra.Command, args []string) {
		if renderSource == "" || renderOutput == "" {
			log.Fatal("必须指定 --source 和 --output")
		}

		cfg := config.Load()
		s := session.New(cfg, renderWidth, renderHeight)
		defer s.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if !s.Engine.LoadSource(ctx, renderSource) {
			log.Fatalf("无法解码音轨: %s", renderSource)
		}

		if renderVisualizer != "" {
			s.Director.SetVisualizer(renderVisualizer, vis.Params{})
		}

		duration := renderDuration
		if duration <= 0 || duration > s.Engine.Duration() {
			duration = s.Engine.Duration()
		}
		fmt.Printf("渲染 %.1f 秒，%dx%d，可视化器: %s\n",
			duration, s.Director.Width(), s.Director.Height(), s.Director.ActiveVisualizer())

		if err := s.StartCapture(); err != nil {
			log.Fatalf("启动录制失败: %v", err)
		}
		s.Engine.Play()
		s.StartLoop()

		time.Sleep(time.Duration(duration * float64(time.Second)))

		s.StopLoop()
		s.Engine.Pause()
		artifact, err := s.StopCapture()
		if err != nil {
			log.Printf("录制结束时编码器报错: %v", err)
		}
		if artifact.Empty() {
			log.Fatal("没有产出任何数据")
		}

		if err := os.WriteFile(renderOutput, artifact.Blob, 0644); err != nil {
			log.Fatalf("写出文件失败: %v", err)
		}
		fmt.Printf("已写出 %s（%d 字节，%s）\n", renderOutput, len(artifact.Blob), artifact.MimeType)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&renderSource, "source", "", "音轨地址（本地路径或URL）")
	renderCmd.Flags().StringVar(&renderOutput, "output", "", "输出文件路径")
	renderCmd.Flags().Float64Var(&renderDuration, "duration", 0, "渲染时长（秒），0为整条音轨")
	renderCmd.Flags().IntVar(&renderWidth, "width", 1280, "画面宽度")
	renderCmd.Flags().IntVar(&renderHeight, "height", 720, "画面高度")
	renderCmd.Flags().StringVar(&renderVisualizer, "vis", "", "可视化器 ID（留空使用默认）")

	renderCmd.Example = `  # 渲染整条音轨
  vizfm render --source song.mp3 --output out.ts

  # 渲染前30秒，使用隧道可视化器
  vizfm render --source song.mp3 --output out.ts --duration 30 --vis tunnel`
}
