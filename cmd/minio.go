package cmd

import (
	"context"
	"fmt"
	"log"

	"VizFM/config"
	"VizFM/storage"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `查看MinIO存储桶中的录制产物，支持按前缀过滤。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始连接MinIO服务器...")

		// 加载配置
		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		// 初始化MinIO客户端
		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}
		fmt.Println("MinIO连接成功！")

		client := storage.GetMinioClient()
		fmt.Printf("\n列出存储桶中的文件 (前缀: %s)...\n", minioPrefix)

		var count int
		var total int64
		for obj := range client.ListObjects(context.Background(), cfg.MinioBucket, minio.ListObjectsOptions{
			Prefix:    minioPrefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				log.Fatalf("列出文件失败: %v", obj.Err)
			}
			fmt.Printf("  %-60s %10d bytes  %s\n", obj.Key, obj.Size, obj.LastModified.Format("2006-01-02 15:04:05"))
			count++
			total += obj.Size
		}
		fmt.Printf("\n共 %d 个文件，%d 字节\n", count, total)
		fmt.Println("MinIO操作完成！")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件")

	minioCmd.Example = `  # 列出所有文件
  vizfm minio

  # 只看录制产物
  vizfm minio -p "captures/"`
}
