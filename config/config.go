package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPath is where the JSON configuration file is looked up when no path is given.
const DefaultPath = "config/config.json"

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	AdminUsername      string
	AdminPassword      string // plain text or a bcrypt hash
	SessionTTLHours    int    // 0 issues sessions without expiry
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database: "mysql" or "sqlite"
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	SQLitePath  string
	// Redis is optional; an empty host disables caching and shared revocation
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Remote check-in service
	EvcardAppKey     string
	EvcardAppSecret  string
	EvcardTCSKey     string
	EvcardTCSSecret  string
	EvcardBaseURL    string
	EvcardTimeoutSec int
	// Scheduler
	SchedulerDisabled       bool
	SchedulerIntervalSec    int
	SchedulerCallTimeoutSec int
	SchedulerWorkers        int
	// Notifications, each channel is enabled by its own required fields
	BarkURL        string
	BarkGroup      string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPFrom       string
	SMTPFromName   string
	SMTPTLS        bool
	NotifyMailTo   string
	SlackBotToken  string
	SlackChannelID string
	AMQPURL        string
	AMQPQueue      string
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration once during boot and exits on invalid settings.
func Load(path string) AppConfig {
	if loaded {
		return cfg
	}
	c, err := Parse(path)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it from DefaultPath if necessary.
func Get() AppConfig {
	if !loaded {
		return Load(DefaultPath)
	}
	return cfg
}

// Parse builds a configuration without caching it.
// Precedence: JSON file -> defaults -> .env / environment variable overrides.
func Parse(path string) (AppConfig, error) {
	var c AppConfig
	if path != "" {
		if err := loadJSONConfig(path, &c); err != nil {
			return c, err
		}
	}
	applyDefaults(&c)

	// .env never overrides variables that are already exported
	_ = godotenv.Load()
	applyEnvOverrides(&c)

	return c, c.Validate()
}

// Validate checks settings that cannot be defaulted.
func (c AppConfig) Validate() error {
	if c.AdminUsername != "" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set when an admin user is configured")
	}
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return errors.New("DB_DRIVER must be mysql or sqlite")
	}
	if c.SchedulerWorkers < 1 {
		return errors.New("SCHEDULER_WORKERS must be at least 1")
	}
	return nil
}

// AuthEnabled reports whether the management API requires a bearer token.
func (c AppConfig) AuthEnabled() bool { return c.AdminUsername != "" }

// SessionTTL is the lifetime of issued login tokens; zero means no expiry.
func (c AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// SchedulerInterval is the delay between scheduler passes.
func (c AppConfig) SchedulerInterval() time.Duration {
	return time.Duration(c.SchedulerIntervalSec) * time.Second
}

// SchedulerCallTimeout bounds a single remote check-in made by the scheduler.
func (c AppConfig) SchedulerCallTimeout() time.Duration {
	return time.Duration(c.SchedulerCallTimeoutSec) * time.Second
}

// EvcardTimeout is the HTTP client timeout for the remote check-in service.
func (c AppConfig) EvcardTimeout() time.Duration {
	return time.Duration(c.EvcardTimeoutSec) * time.Second
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads the grouped JSON file into out if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if f, ok := m[key].(float64); ok {
			return int(f)
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	getStringSlice := func(m map[string]any, key string) []string {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}
	section := func(name string) map[string]any {
		m, _ := raw[name].(map[string]any)
		return m
	}

	if app := section("app"); app != nil {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		out.AdminUsername = getString(app, "AdminUsername")
		out.AdminPassword = getString(app, "AdminPassword")
		out.SessionTTLHours = getInt(app, "SessionTTLHours")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
	}

	if g := section("gin"); g != nil {
		out.GinMode = getString(g, "Mode")
		out.GinPath = getString(g, "LogPath")
	}

	if dbs := section("database"); dbs != nil {
		out.DBDriver = getString(dbs, "Driver")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
		out.SQLitePath = getString(dbs, "SQLitePath")
	}

	if rds := section("redis"); rds != nil {
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg := section("log"); lg != nil {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	if ev := section("evcard"); ev != nil {
		out.EvcardAppKey = getString(ev, "AppKey")
		out.EvcardAppSecret = getString(ev, "AppSecret")
		out.EvcardTCSKey = getString(ev, "TCSKey")
		out.EvcardTCSSecret = getString(ev, "TCSSecret")
		out.EvcardBaseURL = getString(ev, "BaseURL")
		out.EvcardTimeoutSec = getInt(ev, "TimeoutSec")
	}

	if sc := section("scheduler"); sc != nil {
		out.SchedulerDisabled = getBool(sc, "Disabled")
		out.SchedulerIntervalSec = getInt(sc, "IntervalSec")
		out.SchedulerCallTimeoutSec = getInt(sc, "CallTimeoutSec")
		out.SchedulerWorkers = getInt(sc, "Workers")
	}

	if nt := section("notify"); nt != nil {
		out.BarkURL = getString(nt, "BarkURL")
		out.BarkGroup = getString(nt, "BarkGroup")
		out.SMTPHost = getString(nt, "SMTPHost")
		out.SMTPPort = getInt(nt, "SMTPPort")
		out.SMTPUsername = getString(nt, "SMTPUsername")
		out.SMTPPassword = getString(nt, "SMTPPassword")
		out.SMTPFrom = getString(nt, "SMTPFrom")
		out.SMTPFromName = getString(nt, "SMTPFromName")
		out.SMTPTLS = getBool(nt, "SMTPTLS")
		out.NotifyMailTo = getString(nt, "MailTo")
		out.SlackBotToken = getString(nt, "SlackBotToken")
		out.SlackChannelID = getString(nt, "SlackChannelID")
		out.AMQPURL = getString(nt, "AMQPURL")
		out.AMQPQueue = getString(nt, "AMQPQueue")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 30
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "evsign"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "evsign.db"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.EvcardAppKey == "" {
		c.EvcardAppKey = "evcardapp"
	}
	if c.EvcardTCSKey == "" {
		c.EvcardTCSKey = "evcard_tcs"
	}
	if c.EvcardBaseURL == "" {
		c.EvcardBaseURL = "http://csms.evcard.com"
	}
	if c.EvcardTimeoutSec == 0 {
		c.EvcardTimeoutSec = 20
	}
	if c.SchedulerIntervalSec == 0 {
		c.SchedulerIntervalSec = 60
	}
	if c.SchedulerCallTimeoutSec == 0 {
		c.SchedulerCallTimeoutSec = 30
	}
	if c.SchedulerWorkers == 0 {
		c.SchedulerWorkers = 1
	}
	if c.BarkGroup == "" {
		c.BarkGroup = "EvCard签到"
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.AMQPQueue == "" {
		c.AMQPQueue = "evsign.outcome"
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	strs := map[string]*string{
		"APP_PORT":          &c.AppPort,
		"JWT_SECRET":        &c.JWTSecret,
		"ADMIN_USERNAME":    &c.AdminUsername,
		"ADMIN_PASSWORD":    &c.AdminPassword,
		"GIN_MODE":          &c.GinMode,
		"GIN_PATH":          &c.GinPath,
		"DB_DRIVER":         &c.DBDriver,
		"DATABASE_URI":      &c.DatabaseURI,
		"DB_HOST":           &c.DBHost,
		"DB_PORT":           &c.DBPort,
		"DB_USER":           &c.DBUser,
		"DB_PASSWORD":       &c.DBPassword,
		"DB_NAME":           &c.DBName,
		"SQLITE_PATH":       &c.SQLitePath,
		"REDIS_HOST":        &c.RedisHost,
		"REDIS_PASSWORD":    &c.RedisPassword,
		"LOG_LEVEL":         &c.LogLevel,
		"LOG_PATH":          &c.LogPath,
		"EVCARD_APP_KEY":    &c.EvcardAppKey,
		"EVCARD_APP_SECRET": &c.EvcardAppSecret,
		"EVCARD_TCS_KEY":    &c.EvcardTCSKey,
		"EVCARD_TCS_SECRET": &c.EvcardTCSSecret,
		"EVCARD_BASE_URL":   &c.EvcardBaseURL,
		"BARK_URL":          &c.BarkURL,
		"BARK_GROUP":        &c.BarkGroup,
		"SMTP_HOST":         &c.SMTPHost,
		"SMTP_USERNAME":     &c.SMTPUsername,
		"SMTP_PASSWORD":     &c.SMTPPassword,
		"SMTP_FROM":         &c.SMTPFrom,
		"SMTP_FROM_NAME":    &c.SMTPFromName,
		"NOTIFY_MAIL_TO":    &c.NotifyMailTo,
		"SLACK_BOT_TOKEN":   &c.SlackBotToken,
		"SLACK_CHANNEL_ID":  &c.SlackChannelID,
		"AMQP_URL":          &c.AMQPURL,
		"AMQP_QUEUE":        &c.AMQPQueue,
	}
	for key, dst := range strs {
		if v := getEnv(key, ""); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SESSION_TTL_HOURS":          &c.SessionTTLHours,
		"RATE_LIMIT_PER_MINUTE":      &c.RateLimitPerMinute,
		"REDIS_PORT":                 &c.RedisPort,
		"REDIS_DB":                   &c.RedisDB,
		"LOG_MAX_SIZE_MB":            &c.LogMaxSizeMB,
		"LOG_MAX_BACKUPS":            &c.LogMaxBackups,
		"LOG_MAX_AGE_DAYS":           &c.LogMaxAgeDays,
		"EVCARD_TIMEOUT_SEC":         &c.EvcardTimeoutSec,
		"SCHEDULER_INTERVAL_SEC":     &c.SchedulerIntervalSec,
		"SCHEDULER_CALL_TIMEOUT_SEC": &c.SchedulerCallTimeoutSec,
		"SCHEDULER_WORKERS":          &c.SchedulerWorkers,
		"SMTP_PORT":                  &c.SMTPPort,
	}
	for key, dst := range ints {
		if v := getEnv(key, ""); v != "" {
			*dst = mustParseInt(v)
		}
	}

	bools := map[string]*bool{
		"LOG_COMPRESS":       &c.LogCompress,
		"SCHEDULER_DISABLED": &c.SchedulerDisabled,
		"SMTP_TLS":           &c.SMTPTLS,
	}
	for key, dst := range bools {
		if v := getEnv(key, ""); v != "" {
			*dst = v == "true"
		}
	}

	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
