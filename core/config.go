package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RateLimitConfig struct {
		Disabled        bool
		Store           string // memory | redis
		CleanupInterval time.Duration
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	Config struct {
		Server    ServerConfig
		Database  DatabaseConfig
		RateLimit RateLimitConfig
		Redis     RedisConfig

		AppName                   string
		Env                       string
		Build                     string
		Debug                     bool
		TestMode                  bool
		SecretKey                 string
		DefaultFromEmail          mail.Address
		FrontendBaseURL           string
		RollbarToken              string
		SendgridApiKey            string
		PasswordResetTimeoutDelta time.Duration
		WorkDir                   string
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
}

func setDefaults(v *viper.Viper, env string) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "EduSphere")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "gk1#s8dv)n7&wzp^4b(t2c!e_oq3+lmy5r@ux9hj*f6a0")
	v.SetDefault("defaultFromEmailName", "EduSphere")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("serverHost", ":8000")
	v.SetDefault("debugHost", ":4000")
	v.SetDefault("shutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbName", "edusphere")
	v.SetDefault("dbUser", "edusphere")
	v.SetDefault("dbPassword", "edusphere")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbDisableTLS", true)

	v.SetDefault("rateLimitDisabled", false)
	v.SetDefault("rateLimitStore", "memory")
	v.SetDefault("rateLimitCleanupInterval", time.Hour)

	v.SetDefault("redisAddr", "")
	v.SetDefault("redisPassword", "")
	v.SetDefault("redisDB", 0)
}

// NewConfig reads the configuration for the current ENV (DEV by default, TEST, QA or PROD).
// Values come from "<ENV>_<KEY>" environment variables, optionally loaded from config/.env.<env>.
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	workDir := Getwd()
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v := viper.New()
	setDefaults(v, env)
	v.SetEnvPrefix(env)
	v.AutomaticEnv()

	conf := &Config{
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			DebugHost:                 v.GetString("debugHost"),
			ShutdownTimeout:           v.GetDuration("shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetInt("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		RateLimit: RateLimitConfig{
			Disabled:        v.GetBool("rateLimitDisabled"),
			Store:           strings.ToLower(v.GetString("rateLimitStore")),
			CleanupInterval: v.GetDuration("rateLimitCleanupInterval"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redisAddr"),
			Password: v.GetString("redisPassword"),
			DB:       v.GetInt("redisDB"),
		},
		AppName:  v.GetString("appName"),
		Env:      env,
		Build:    v.GetString("build"),
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("defaultFromEmailName"),
			Address: v.GetString("defaultFromEmail"),
		},
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		WorkDir:                   workDir,
	}
	if err := conf.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

// Validate checks the values every process relies on.
func (c *Config) Validate() error {
	return vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.AppName, "appName"),
		vala.StringNotEmpty(c.SecretKey, "secretKey"),
		vala.GreaterThan(int(c.Server.JWTExpirationDelta), 0, "jwtExpirationDelta"),
		vala.GreaterThan(int(c.Server.JWTRefreshExpirationDelta), 0, "jwtRefreshExpirationDelta"),
		vala.GreaterThan(int(c.RateLimit.CleanupInterval), 0, "rateLimitCleanupInterval"),
	).Check()
}

// NewTestConfig returns a Config suitable for unit tests, without touching the environment.
func NewTestConfig() *Config {
	return &Config{
		Server: ServerConfig{
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			ShutdownTimeout:           time.Second,
		},
		RateLimit:                 RateLimitConfig{Store: "memory", CleanupInterval: time.Hour},
		AppName:                   "EduSphere",
		Env:                       "TEST",
		TestMode:                  true,
		SecretKey:                 "test-secret",
		DefaultFromEmail:          mail.Address{Name: "EduSphere", Address: "noreply@test.test"},
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
}
