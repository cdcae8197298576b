package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server Server
	Minio  Minio
	FTP    FTP
	SKU    SKU
	Resize Resize
	Sweep  Sweep
	Sync   Sync
}

type Server struct {
	Port     string
	Mode     string
	LogLevel string
}

type Minio struct {
	Endpoint   string
	Port       int
	UseSSL     bool
	AccessKey  string
	SecretKey  string
	Bucket     string
	PresignTTL time.Duration
}

type FTP struct {
	Host       string
	Port       int
	User       string
	Password   string
	Secure     bool
	RemotePath string
	ExportPath string
	Timeout    time.Duration
}

// Enabled reports whether enough FTP configuration is present to open
// sessions. When false, FTP import and export are skipped.
func (f FTP) Enabled() bool {
	return f.Host != "" && f.User != "" && f.Password != ""
}

type SKU struct {
	// Mode selects the extraction rule: "prefix" takes the first 13
	// alphanumeric characters, "underscore" everything before the first _.
	Mode              string
	TranslatorURL     string
	TranslatorTimeout time.Duration
}

type Resize struct {
	WebPQuality                int
	OriginalQuality            int
	SaveOriginalFormat         bool
	DeleteOriginalAfterProcess bool
	SupportedExtensions        []string
	TempDir                    string
	WorkerCount                int
}

type Sweep struct {
	Enabled   bool
	Delay     time.Duration
	BatchSize int
}

type Sync struct {
	CronSchedule      string
	LookbackHours     int
	DeleteAfterUpload bool
	InitialDelay      time.Duration
}

var (
	once     sync.Once
	instance *Config
	loadErr  error
)

// Load reads configuration from the environment (and an optional .env
// file), applies defaults and validates the result. It is safe to call
// from multiple goroutines; the first call wins.
func Load() (*Config, error) {
	once.Do(func() {
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "3000")
		viper.SetDefault("SERVER_MODE", "release")
		viper.SetDefault("LOG_LEVEL", "info")

		viper.SetDefault("MINIO_ENDPOINT", "localhost")
		viper.SetDefault("MINIO_PORT", 9000)
		viper.SetDefault("MINIO_USE_SSL", false)
		viper.SetDefault("MINIO_ACCESS_KEY", "admin")
		viper.SetDefault("MINIO_SECRET_KEY", "password123")
		viper.SetDefault("MINIO_BUCKET", "products")
		viper.SetDefault("PRESIGN_TTL_SECONDS", 3600)

		viper.SetDefault("FTP_HOST", "")
		viper.SetDefault("FTP_PORT", 21)
		viper.SetDefault("FTP_USER", "")
		viper.SetDefault("FTP_PASSWORD", "")
		viper.SetDefault("FTP_SECURE", false)
		viper.SetDefault("FTP_REMOTE_PATH", "/images")
		viper.SetDefault("FTP_EXPORT_PATH", "/")
		viper.SetDefault("FTP_TIMEOUT_SECONDS", 30)

		viper.SetDefault("SKU_MODE", "prefix")
		viper.SetDefault("SKU_TRANSLATOR_URL", "")
		viper.SetDefault("SKU_TRANSLATOR_TIMEOUT_SECONDS", 5)

		viper.SetDefault("WEBP_QUALITY", 90)
		viper.SetDefault("ORIGINAL_QUALITY", 90)
		viper.SetDefault("SAVE_ORIGINAL_FORMAT", true)
		viper.SetDefault("DELETE_ORIGINAL_AFTER_PROCESS", true)
		viper.SetDefault("SUPPORTED_EXTENSIONS", ".jpg,.jpeg,.png,.gif,.webp,.tiff,.bmp")
		viper.SetDefault("TEMP_DIR", "./temp")
		viper.SetDefault("WORKER_COUNT", 4)

		viper.SetDefault("SWEEP_ENABLED", true)
		viper.SetDefault("SWEEP_DELAY_SECONDS", 10)
		viper.SetDefault("SWEEP_BATCH_SIZE", 5)

		viper.SetDefault("SYNC_CRON_SCHEDULE", "0 * * * *")
		viper.SetDefault("LOOKBACK_HOURS", 24)
		viper.SetDefault("DELETE_AFTER_UPLOAD", false)
		viper.SetDefault("SYNC_INITIAL_DELAY_SECONDS", 5)

		viper.AutomaticEnv()

		cfg := &Config{
			Server: Server{
				Port:     viper.GetString("SERVER_PORT"),
				Mode:     viper.GetString("SERVER_MODE"),
				LogLevel: viper.GetString("LOG_LEVEL"),
			},
			Minio: Minio{
				Endpoint:   viper.GetString("MINIO_ENDPOINT"),
				Port:       viper.GetInt("MINIO_PORT"),
				UseSSL:     viper.GetBool("MINIO_USE_SSL"),
				AccessKey:  viper.GetString("MINIO_ACCESS_KEY"),
				SecretKey:  viper.GetString("MINIO_SECRET_KEY"),
				Bucket:     viper.GetString("MINIO_BUCKET"),
				PresignTTL: time.Duration(viper.GetInt("PRESIGN_TTL_SECONDS")) * time.Second,
			},
			FTP: FTP{
				Host:       viper.GetString("FTP_HOST"),
				Port:       viper.GetInt("FTP_PORT"),
				User:       viper.GetString("FTP_USER"),
				Password:   viper.GetString("FTP_PASSWORD"),
				Secure:     viper.GetBool("FTP_SECURE"),
				RemotePath: viper.GetString("FTP_REMOTE_PATH"),
				ExportPath: viper.GetString("FTP_EXPORT_PATH"),
				Timeout:    time.Duration(viper.GetInt("FTP_TIMEOUT_SECONDS")) * time.Second,
			},
			SKU: SKU{
				Mode:              viper.GetString("SKU_MODE"),
				TranslatorURL:     viper.GetString("SKU_TRANSLATOR_URL"),
				TranslatorTimeout: time.Duration(viper.GetInt("SKU_TRANSLATOR_TIMEOUT_SECONDS")) * time.Second,
			},
			Resize: Resize{
				WebPQuality:                viper.GetInt("WEBP_QUALITY"),
				OriginalQuality:            viper.GetInt("ORIGINAL_QUALITY"),
				SaveOriginalFormat:         viper.GetBool("SAVE_ORIGINAL_FORMAT"),
				DeleteOriginalAfterProcess: viper.GetBool("DELETE_ORIGINAL_AFTER_PROCESS"),
				SupportedExtensions:        splitList(viper.GetString("SUPPORTED_EXTENSIONS")),
				TempDir:                    viper.GetString("TEMP_DIR"),
				WorkerCount:                viper.GetInt("WORKER_COUNT"),
			},
			Sweep: Sweep{
				Enabled:   viper.GetBool("SWEEP_ENABLED"),
				Delay:     time.Duration(viper.GetInt("SWEEP_DELAY_SECONDS")) * time.Second,
				BatchSize: viper.GetInt("SWEEP_BATCH_SIZE"),
			},
			Sync: Sync{
				CronSchedule:      viper.GetString("SYNC_CRON_SCHEDULE"),
				LookbackHours:     viper.GetInt("LOOKBACK_HOURS"),
				DeleteAfterUpload: viper.GetBool("DELETE_AFTER_UPLOAD"),
				InitialDelay:      time.Duration(viper.GetInt("SYNC_INITIAL_DELAY_SECONDS")) * time.Second,
			},
		}

		if err := cfg.Validate(); err != nil {
			loadErr = err
			return
		}

		if err := os.MkdirAll(cfg.Resize.TempDir, 0o755); err != nil {
			loadErr = fmt.Errorf("failed to create temp dir %s: %w", cfg.Resize.TempDir, err)
			return
		}

		instance = cfg
	})

	return instance, loadErr
}

// Validate rejects malformed values up front rather than letting them
// surface as odd behavior deep in a pipeline run.
func (c *Config) Validate() error {
	if c.Minio.Endpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT must not be empty")
	}
	if c.Minio.Port <= 0 || c.Minio.Port > 65535 {
		return fmt.Errorf("MINIO_PORT out of range: %d", c.Minio.Port)
	}
	if c.Minio.AccessKey == "" || c.Minio.SecretKey == "" {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY must be provided")
	}
	if c.Minio.Bucket == "" {
		return fmt.Errorf("MINIO_BUCKET must not be empty")
	}
	if c.FTP.Enabled() && (c.FTP.Port <= 0 || c.FTP.Port > 65535) {
		return fmt.Errorf("FTP_PORT out of range: %d", c.FTP.Port)
	}
	if c.SKU.Mode != "prefix" && c.SKU.Mode != "underscore" {
		return fmt.Errorf("SKU_MODE must be \"prefix\" or \"underscore\", got %q", c.SKU.Mode)
	}
	if c.Resize.WebPQuality < 0 || c.Resize.WebPQuality > 100 {
		return fmt.Errorf("WEBP_QUALITY must be 0-100, got %d", c.Resize.WebPQuality)
	}
	if c.Resize.OriginalQuality < 0 || c.Resize.OriginalQuality > 100 {
		return fmt.Errorf("ORIGINAL_QUALITY must be 0-100, got %d", c.Resize.OriginalQuality)
	}
	if len(c.Resize.SupportedExtensions) == 0 {
		return fmt.Errorf("SUPPORTED_EXTENSIONS must not be empty")
	}
	for _, ext := range c.Resize.SupportedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("supported extension %q must start with a dot", ext)
		}
	}
	if c.Resize.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1, got %d", c.Resize.WorkerCount)
	}
	if c.Sweep.BatchSize < 1 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be at least 1, got %d", c.Sweep.BatchSize)
	}
	if c.Sync.LookbackHours < 1 {
		return fmt.Errorf("LOOKBACK_HOURS must be at least 1, got %d", c.Sync.LookbackHours)
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
