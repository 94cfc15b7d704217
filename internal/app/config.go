package app

import (
	"time"

	"github.com/yungbote/signage-backend/internal/data/db"
	"github.com/yungbote/signage-backend/internal/platform/blob"
	"github.com/yungbote/signage-backend/internal/platform/envutil"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

type Config struct {
	Port    string
	LogMode string
	LogFile string

	DB   db.Config
	Blob blob.Config

	JWTSecretKey   string
	AccessTokenTTL time.Duration
	AdminUsername  string
	AdminPassword  string

	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	SendBuffer        int

	RedisAddr    string
	RedisChannel string

	AllowedOrigins []string
	Version        string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:    envutil.String("PORT", "3000"),
		LogMode: envutil.String("LOG_MODE", "development"),
		LogFile: envutil.String("LOG_FILE", ""),

		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", "sqlite"),
			SQLitePath:       envutil.String("SQLITE_PATH", "signage.db"),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
			PostgresName:     envutil.String("POSTGRES_NAME", "signage"),
		},
		Blob: blob.Config{
			Mode:         blob.Mode(envutil.String("BLOB_MODE", string(blob.ModeLocal))),
			LocalDir:     envutil.String("MEDIA_DIR", "media"),
			GCSBucket:    envutil.String("MEDIA_GCS_BUCKET_NAME", ""),
			EmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
		},

		JWTSecretKey:   envutil.Required(log, "JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", 24*time.Hour),
		AdminUsername:  envutil.String("ADMIN_USERNAME", "admin"),
		AdminPassword:  envutil.Required(log, "ADMIN_PASSWORD", "admin123"),

		HeartbeatInterval: envutil.Duration("HEARTBEAT_INTERVAL", 30*time.Second),
		HeartbeatTimeout:  envutil.Duration("HEARTBEAT_TIMEOUT", 65*time.Second),
		SendBuffer:        envutil.Int("WS_SEND_BUFFER", 64),

		RedisAddr:    envutil.String("REDIS_ADDR", ""),
		RedisChannel: envutil.String("REDIS_CHANNEL", ""),

		AllowedOrigins: envutil.List("CORS_ALLOW_ORIGINS", nil),
		Version:        envutil.String("APP_VERSION", "dev"),
	}
}

func envLogMode() string {
	return envutil.String("LOG_MODE", "development")
}
