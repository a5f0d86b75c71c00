package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `json:"appname"`
	AppEnv  string `json:"appenv"`
	AppPort uint16 `json:"appport"`
	GinMode string `json:"ginmode"`
	BaseURL string `json:"baseurl"`

	SecretKey  string        `json:"-"`
	SessionTTL time.Duration `json:"session_ttl"`

	DBDriver string `json:"dbdriver"`
	DBHost   string `json:"dbhost"`
	DBPort   uint16 `json:"dbport"`
	DBName   string `json:"dbname"`
	DBUSER   string `json:"dbuser"`
	DBPass   string `json:"-"`

	MailServer       string `json:"mail_server"`
	MailPort         int    `json:"mail_port"`
	MailUsername     string `json:"mail_username"`
	MailPassword     string `json:"-"`
	MailSender       string `json:"mail_sender"`
	MailSuppressSend bool   `json:"mail_suppress_send"`

	RedisEnabled bool   `json:"redis_enabled"`
	RedisAddr    string `json:"redis_addr"`
	RedisPass    string `json:"-"`
	RedisDB      int    `json:"redis_db"`

	GeoIPDBPath        string        `json:"geoip_db_path"`
	SecurityLogPersist bool          `json:"security_log_persist"`
	RateLimit          int           `json:"rate_limit"`
	RateWindow         time.Duration `json:"rate_window"`
	CORSOrigins        []string      `json:"cors_origins"`
}

// IsTest reports whether the app runs under APPENV=test.
func (c *Config) IsTest() bool {
	return c.AppEnv == "test"
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// A missing .env is fine; the process environment still applies.
		if err := godotenv.Load(); err != nil {
			log.Warn().Err(err).Msg("no .env file loaded")
		}

		appPort, err := strconv.ParseUint(getEnv("APPPORT", "7070"), 10, 16)
		if err != nil {
			appPort = 7070
		}
		dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)

		config = &Config{
			AppName: getEnv("APPNAME", "spu-dispensary"),
			AppEnv:  getEnv("APPENV", "development"),
			AppPort: uint16(appPort),
			GinMode: getEnv("GINMODE", "debug"),
			BaseURL: strings.TrimRight(getEnv("BASEURL", fmt.Sprintf("http://localhost:%d", appPort)), "/"),

			SecretKey:  os.Getenv("SECRET_KEY"),
			SessionTTL: time.Duration(getEnvInt("SESSION_TTL_HOURS", 720)) * time.Hour,

			DBDriver: strings.ToLower(getEnv("DBDRIVER", "sqlite")),
			DBHost:   os.Getenv("DBHOST"),
			DBPort:   uint16(dbPort),
			DBName:   getEnv("DBNAME", "database.db"),
			DBUSER:   os.Getenv("DBUSER"),
			DBPass:   os.Getenv("DBPASS"),

			MailServer:       getEnv("MAIL_SERVER", "smtp.gmail.com"),
			MailPort:         getEnvInt("MAIL_PORT", 587),
			MailUsername:     os.Getenv("MAIL_USERNAME"),
			MailPassword:     os.Getenv("MAIL_PASSWORD"),
			MailSender:       getEnv("MAIL_SENDER", "noreply@spudispensary.spu.ac.ke"),
			MailSuppressSend: getEnvBool("MAIL_SUPPRESS_SEND", false),

			RedisEnabled: getEnvBool("REDIS_ENABLED", false),
			RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPass:    getEnv("REDIS_PASSWORD", os.Getenv("REDIS_PASS")),
			RedisDB:      getEnvInt("REDIS_DB", 0),

			GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
			SecurityLogPersist: getEnvBool("SECURITY_LOG_PERSIST", false),
			RateLimit:          getEnvInt("RATE_LIMIT", 10),
			RateWindow:         time.Duration(getEnvInt("RATE_WINDOW_MINUTES", 1)) * time.Minute,
			CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		}
	})
	return config
}

// ResetConfigForTest drops the cached config so the next LoadConfig re-reads the environment.
func ResetConfigForTest() {
	config = nil
	once = sync.Once{}
}

var memDBSeq atomic.Uint64

// ConnectDatabase opens the database selected by DBDRIVER. Under APPENV=test
// every call returns a fresh in-memory sqlite database.
func ConnectDatabase() (*gorm.DB, error) {
	cfg := LoadConfig()
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var dialector gorm.Dialector
	switch {
	case cfg.IsTest():
		dsn := fmt.Sprintf("file:spu_test_%d_%d?mode=memory&cache=shared", os.Getpid(), memDBSeq.Add(1))
		dialector = sqlite.Open(dsn)
	case cfg.DBDriver == "sqlite":
		dialector = sqlite.Open(cfg.DBName)
	case cfg.DBDriver == "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
			cfg.DBHost, cfg.DBUSER, cfg.DBPass, cfg.DBName, cfg.DBPort)
		dialector = postgres.Open(dsn)
	case cfg.DBDriver == "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DBDRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	return db, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
