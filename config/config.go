package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Analysis constants are empirically tuned and deliberately kept
// configurable rather than hardcoded in the engine.
type Config struct {
	FFmpegPath string
	HTTPAddr   string

	// 音频分析参数
	SampleRate     int     // 解码后的 PCM 采样率
	FFTSize        int     // 每个 tick 的 FFT 窗口大小
	PeakDecay      float64 // 归一化峰值的衰减系数（每 tick）
	BeatThreshold  float64 // 节拍触发的上升沿阈值（相对短期均值）
	BeatRefractory float64 // 节拍抑制间隔（秒）
	EnvelopeLength int     // 短期能量均值的窗口长度（tick 数）

	// 录制参数
	CaptureDir       string // 录制分块的临时目录
	CaptureFrameRate int
	CaptureChunkSecs string // ffmpeg 分块时长（秒）

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MySQL配置
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// MinIO配置
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// 认证
	JWTSecret string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvFloat gets an environment variable as float64 or returns a default value.
func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),
		HTTPAddr:   getEnv("HTTP_ADDR", ":8080"),

		SampleRate:     getEnvInt("ANALYSIS_SAMPLE_RATE", 44100),
		FFTSize:        getEnvInt("ANALYSIS_FFT_SIZE", 2048),
		PeakDecay:      getEnvFloat("ANALYSIS_PEAK_DECAY", 0.995),
		BeatThreshold:  getEnvFloat("BEAT_THRESHOLD", 1.3),
		BeatRefractory: getEnvFloat("BEAT_REFRACTORY", 0.18),
		EnvelopeLength: getEnvInt("BEAT_ENVELOPE_LENGTH", 43),

		CaptureDir:       getEnv("CAPTURE_DIR", filepath.Join(os.TempDir(), "vizfm-capture")),
		CaptureFrameRate: getEnvInt("CAPTURE_FRAME_RATE", 30),
		CaptureChunkSecs: getEnv("CAPTURE_CHUNK_SECS", "1"),

		// Redis配置，使用默认值
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""), // 默认无密码
		RedisDB:       getEnvInt("REDIS_DB", 0),     // 默认使用0号数据库

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // For password, better not to have a hardcoded default
		DBName:     getEnv("DB_NAME", "vizfm"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "vizfm"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		JWTSecret: getEnv("JWT_SECRET", "vizfm-dev-secret"),
	}
}
