package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultAccessTokenExpiryMin  = 15
	DefaultRefreshTokenExpiryDay = 7
)

type Config struct {
	Env  string
	Port string

	DBURL    string
	RedisURL string

	JWTIssuer        string
	PrivateKeyPath   string
	PublicKeyPath    string
	AccessExpiryMin  int
	RefreshExpiryDay int

	SMTPAddr string
	SMTPFrom string

	// RequireDeviceFingerprint makes logins without a fingerprint go through
	// the new-device challenge instead of skipping the device check. Off by
	// default: device tracking is advisory unless operators opt in.
	RequireDeviceFingerprint bool
}

// loader resolves keys with environment variables taking precedence over the
// values read from config/.env.<env>.
type loader struct {
	file map[string]string
}

// Load reads config/.env.dev (or .env.prod when ENV=production) if present,
// with environment variables overriding file values.
func Load() *Config {
	env := envOr("ENV", "development")

	envFile := ".env.dev"
	if env == "production" {
		envFile = ".env.prod"
	}

	fileVals, err := godotenv.Read(filepath.Join("config", envFile))
	if err != nil {
		fileVals = map[string]string{}
	}
	l := &loader{file: fileVals}

	return &Config{
		Env:                      env,
		Port:                     l.get("PORT", "8080"),
		DBURL:                    l.mustGet("DB_URL"),
		RedisURL:                 l.get("REDIS_URL", "redis://localhost:6379/0"),
		JWTIssuer:                l.get("JWT_ISSUER", "neuro-bank"),
		PrivateKeyPath:           l.mustGet("JWT_PRIVATE_KEY_PATH"),
		PublicKeyPath:            l.mustGet("JWT_PUBLIC_KEY_PATH"),
		AccessExpiryMin:          l.getInt("ACCESS_TOKEN_EXPIRY_MIN", DefaultAccessTokenExpiryMin),
		RefreshExpiryDay:         l.getInt("REFRESH_TOKEN_EXPIRY_DAY", DefaultRefreshTokenExpiryDay),
		SMTPAddr:                 l.get("SMTP_ADDR", ""),
		SMTPFrom:                 l.get("SMTP_FROM", "no-reply@neuro-bank.local"),
		RequireDeviceFingerprint: l.getBool("REQUIRE_DEVICE_FINGERPRINT", false),
	}
}

func (l *loader) lookup(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return l.file[key]
}

func (l *loader) get(key, defaultVal string) string {
	if value := l.lookup(key); value != "" {
		return value
	}
	return defaultVal
}

func (l *loader) mustGet(key string) string {
	if value := l.lookup(key); value != "" {
		return value
	}
	log.Fatalf("Missing required environment variable: %s", key)
	return ""
}

func (l *loader) getInt(key string, defaultVal int) int {
	valStr := l.lookup(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}

func (l *loader) getBool(key string, defaultVal bool) bool {
	valStr := l.lookup(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %t", key, defaultVal)
		return defaultVal
	}
	return val
}

func envOr(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}
