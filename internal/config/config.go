package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/meshahzad92/Inbound-Calling/internal/transfer"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	Twilio   TwilioConfig
	Agent    AgentConfig
	Extract  ExtractConfig
	Transfer TransferConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Report   ReportConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PublicBaseURL is the externally reachable base of this API. The
	// agent platform calls back into it for transfer tool invocations.
	PublicBaseURL string
}

type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

type AgentConfig struct {
	APIKey string
	Voice  string
}

type ExtractConfig struct {
	APIKey string
	Model  string
}

type TransferConfig struct {
	// ManagementNumber is the fallback destination when a transfer
	// request names no number.
	ManagementNumber string

	RingTimeout        time.Duration
	PollInterval       time.Duration
	QuickDeadline      time.Duration
	BackgroundDeadline time.Duration
	OutcomeRetention   time.Duration
	Strategy           transfer.Strategy

	// DialLimit caps concurrent probes per destination, 0 disables the
	// limiter (it also requires Redis).
	DialLimit int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration

	AdminUser     string
	AdminPassword string
}

type ReportConfig struct {
	CSVPath string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.PhoneNumber = strings.TrimSpace(os.Getenv("TWILIO_PHONE_NUMBER"))

	c.Agent.APIKey = os.Getenv("ULTRAVOX_API_KEY")
	c.Agent.Voice = strings.TrimSpace(os.Getenv("ULTRAVOX_VOICE"))
	if c.Agent.Voice == "" {
		c.Agent.Voice = "Mark"
	}

	c.Extract.APIKey = os.Getenv("OPENAI_API_KEY")
	c.Extract.Model = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))

	c.Transfer.ManagementNumber = strings.TrimSpace(os.Getenv("MANAGEMENT_REDIRECT_NUMBER"))
	c.Transfer.RingTimeout = durationOr("TRANSFER_RING_TIMEOUT", 20*time.Second)
	c.Transfer.PollInterval = durationOr("TRANSFER_POLL_INTERVAL", 2*time.Second)
	c.Transfer.QuickDeadline = durationOr("TRANSFER_QUICK_DEADLINE", 30*time.Second)
	c.Transfer.BackgroundDeadline = durationOr("TRANSFER_BACKGROUND_DEADLINE", 2*time.Minute)
	c.Transfer.OutcomeRetention = durationOr("TRANSFER_OUTCOME_RETENTION", 4*time.Hour)
	c.Transfer.Strategy = transfer.Strategy(strings.TrimSpace(os.Getenv("TRANSFER_STRATEGY")))
	if c.Transfer.Strategy == "" {
		c.Transfer.Strategy = transfer.StrategyDirectRedirect
	}
	c.Transfer.DialLimit = intOr("TRANSFER_DIAL_LIMIT", 0)

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port = intOr("DB_PORT", 5432)
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port = intOr("REDIS_PORT", 6379)

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTTL = durationOr("JWT_ACCESS_TTL", 15*time.Minute)
	c.Auth.RefreshTTL = durationOr("JWT_REFRESH_TTL", 30*24*time.Hour)
	c.Auth.AdminUser = strings.TrimSpace(os.Getenv("ADMIN_USERNAME"))
	c.Auth.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	c.Report.CSVPath = strings.TrimSpace(os.Getenv("REPORT_CSV_PATH"))
	if c.Report.CSVPath == "" {
		c.Report.CSVPath = "Progress.csv"
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.PublicBaseURL == "" {
		errs = append(errs, errors.New("PUBLIC_BASE_URL is required"))
	}

	if c.Twilio.AccountSID == "" {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID is required"))
	}
	if c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required"))
	}
	if c.Twilio.PhoneNumber == "" {
		errs = append(errs, errors.New("TWILIO_PHONE_NUMBER is required"))
	}

	if c.Agent.APIKey == "" {
		errs = append(errs, errors.New("ULTRAVOX_API_KEY is required"))
	}
	if c.Extract.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}

	if c.Transfer.ManagementNumber == "" {
		errs = append(errs, errors.New("MANAGEMENT_REDIRECT_NUMBER is required"))
	}
	if c.Transfer.PollInterval <= 0 {
		errs = append(errs, errors.New("TRANSFER_POLL_INTERVAL must be positive"))
	}
	if c.Transfer.QuickDeadline < c.Transfer.PollInterval {
		errs = append(errs, errors.New("TRANSFER_QUICK_DEADLINE must be at least TRANSFER_POLL_INTERVAL"))
	}
	if !c.Transfer.Strategy.Valid() {
		errs = append(errs, fmt.Errorf("TRANSFER_STRATEGY must be one of direct_redirect, conference_merge, got %q", c.Transfer.Strategy))
	}

	// Postgres and Redis are optional for local runs; production must
	// have both so records and outcomes survive restarts.
	if c.IsProduction() {
		if !c.HasPostgres() {
			errs = append(errs, errors.New("DB_HOST, DB_USER, DB_NAME are required in production"))
		} else if c.DB.SSLMode == "" {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		}
		if !c.HasRedis() {
			errs = append(errs, errors.New("REDIS_HOST is required in production"))
		}
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}
	if c.Transfer.DialLimit > 0 && !c.HasRedis() {
		errs = append(errs, errors.New("TRANSFER_DIAL_LIMIT requires REDIS_HOST"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.AdminUser == "" || c.Auth.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD are required"))
	}
	if c.Auth.RefreshTTL <= c.Auth.AccessTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool { return c.App.Env == "production" }

func (c Config) HasPostgres() bool {
	return c.DB.Host != "" && c.DB.User != "" && c.DB.Name != ""
}

func (c Config) HasRedis() bool { return c.Redis.Host != "" }

func (c Config) HTTPAddr() string { return fmt.Sprintf(":%d", c.App.Port) }

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	sslmode := c.DB.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, sslmode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// TransferToolURL is where the agent platform posts transfer requests.
func (c Config) TransferToolURL() string {
	return c.App.PublicBaseURL + "/api/transfer"
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func intOr(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durationOr(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
