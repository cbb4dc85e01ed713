package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"VizFM/cache"
	"VizFM/config"
	"VizFM/core/session"
	"VizFM/db"
	"VizFM/logger"
	"VizFM/repository"
	"VizFM/storage"

	"github.com/gorilla/mux"
	"github.com/minio/minio-go/v7"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 初始化 MinIO 客户端
	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database via GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	// Connect to Redis
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer cache.CloseRedis()
	logger.Info("Successfully connected to Redis")

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	ensureDirExists(cfg.CaptureDir)

	sessions := session.NewManager(cfg)
	defer sessions.CloseAll()

	userRepo := repository.NewMySQLUserRepository(db.DB)
	presetRepo := repository.NewGormPresetRepository(db.GormDB)
	captureRepo := repository.NewGormCaptureRepository(db.GormDB)

	// 初始化处理器
	apiHandler := NewAPIHandler(cfg, sessions, userRepo, presetRepo, captureRepo)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 用户认证相关的API端点
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// 会话相关的API端点
	router.HandleFunc("/api/sessions", apiHandler.AuthMiddleware(apiHandler.CreateSessionHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteSessionHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/sessions/{id}/source", apiHandler.AuthMiddleware(apiHandler.LoadSourceHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/playback", apiHandler.AuthMiddleware(apiHandler.PlaybackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/visualizer", apiHandler.AuthMiddleware(apiHandler.SetVisualizerHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/resize", apiHandler.AuthMiddleware(apiHandler.ResizeHandler)).Methods(http.MethodPost)

	// 场景元素相关的API端点
	router.HandleFunc("/api/sessions/{id}/elements", apiHandler.AuthMiddleware(apiHandler.ListElementsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions/{id}/elements", apiHandler.AuthMiddleware(apiHandler.UpsertElementHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/elements/{elementId}", apiHandler.AuthMiddleware(apiHandler.MergeElementHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/sessions/{id}/elements/{elementId}/visible", apiHandler.AuthMiddleware(apiHandler.ElementVisibilityHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/sessions/{id}/elements/{elementId}", apiHandler.AuthMiddleware(apiHandler.RemoveElementHandler)).Methods(http.MethodDelete)

	// 歌词相关的API端点
	router.HandleFunc("/api/sessions/{id}/lyrics", apiHandler.AuthMiddleware(apiHandler.LoadLyricsHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/lyrics", apiHandler.AuthMiddleware(apiHandler.ClearLyricsHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/sessions/{id}/lyrics", apiHandler.AuthMiddleware(apiHandler.LyricsStateHandler)).Methods(http.MethodGet)

	// 录制相关的API端点
	router.HandleFunc("/api/sessions/{id}/capture/start", apiHandler.AuthMiddleware(apiHandler.StartCaptureHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/capture/stop", apiHandler.AuthMiddleware(apiHandler.StopCaptureHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/captures", apiHandler.AuthMiddleware(apiHandler.ListCapturesHandler)).Methods(http.MethodGet)

	// 场景预设相关的API端点
	router.HandleFunc("/api/presets", apiHandler.AuthMiddleware(apiHandler.ListPresetsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/presets", apiHandler.AuthMiddleware(apiHandler.SavePresetHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/presets/{presetId}", apiHandler.AuthMiddleware(apiHandler.DeletePresetHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/sessions/{id}/presets/{presetId}/apply", apiHandler.AuthMiddleware(apiHandler.ApplyPresetHandler)).Methods(http.MethodPost)

	// WebSocket 状态推送
	router.HandleFunc("/ws/sessions/{id}", apiHandler.SessionStateWS).Methods(http.MethodGet)

	// 添加MinIO文件服务路由（录制产物回放）
	router.PathPrefix("/captures/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objectPath := strings.TrimPrefix(r.URL.Path, "/")
		client := storage.GetMinioClient()
		if client == nil {
			http.Error(w, "MinIO client not available", http.StatusInternalServerError)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		object, err := client.GetObject(ctx, cfg.MinioBucket, objectPath, minio.GetObjectOptions{})
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer object.Close()

		var contentType string
		if strings.HasSuffix(objectPath, ".ts") {
			contentType = "video/MP2T"
		} else {
			contentType = "application/octet-stream"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Cache-Control", "public, max-age=31536000") // 缓存一年

		_, err = io.Copy(w, object)
		if err != nil {
			logger.Error("Error serving file from MinIO", logger.ErrorField(err))
		}
	})

	server.Handler = router

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		logger.Info("Create sessions via POST to /api/sessions")
		logger.Info("Subscribe to scene state via /ws/sessions/{id}")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	// 等待中断信号
	<-stop
	logger.Info("Shutting down server...")

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("Creating directory", logger.String("path", path))
		if err := os.MkdirAll(path, 0755); err != nil {
			logger.Fatal("Failed to create directory", logger.String("path", path), logger.ErrorField(err))
		}
	} else if err != nil {
		logger.Fatal("Failed to check directory", logger.String("path", path), logger.ErrorField(err))
	}
}
