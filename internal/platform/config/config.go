// Package config builds runtime configuration from environment variables so
// main stays lean. Every gating tunable is a named default here, never a
// literal at the call site.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration for the bastion server.
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Postgres  PostgresConfig
	Challenge ChallengeConfig
	Guard     GuardConfig
	RateLimit RateLimitConfig
	Fraud     FraudConfig
	Breakers  BreakerConfig
	Captcha   CaptchaConfig
	Audit     AuditConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	LogLevel        string
}

// RedisConfig configures the shared Redis client. An empty URL means Redis is
// not configured and in-memory stores are used instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the durable store. An empty URL disables
// persistence (attempts and audit entries stay in memory).
type PostgresConfig struct {
	URL string
}

// ChallengeConfig tunes the proof-of-work engine.
type ChallengeConfig struct {
	DefaultDifficulty int           // leading zero bits
	MaxDifficulty     int           // clamp for client-requested difficulty
	TTL               time.Duration // challenge lifetime
	TokenTTL          time.Duration // work token lifetime, independent of TTL
	TokenSigningKey   string
	TokenIssuer       string
}

// GuardConfig tunes the action-token / honeypot / timing checks.
type GuardConfig struct {
	TokenTTL          time.Duration
	MinSubmissionTime time.Duration
}

// RateLimitConfig holds per-operation limiter defaults.
type RateLimitConfig struct {
	FormMaxRequests    int
	FormWindow         time.Duration
	PaymentMaxRequests int
	PaymentWindow      time.Duration
	FailOpen           bool // on store errors: false = deny (conservative default)
}

// FraudConfig holds risk-scoring weights and friction thresholds. The defaults
// mirror the original heuristics; none of them are calibrated against a data
// set, so all are overridable.
type FraudConfig struct {
	HighAmountThreshold float64
	HighAmountPoints    int
	SuspiciousPoints    int
	HourlyAttemptLimit  int
	HourlyPoints        int
	BurstAttemptLimit   int
	BurstWindow         time.Duration
	BurstPoints         int
	RoundAmountPoints   int
	BotUserAgentPoints  int

	BlockThreshold   int
	StepUpThreshold  int
	CaptchaThreshold int
	DeclinePenalty   int
	CooldownPeriod   time.Duration
	VelocityWindow   time.Duration
}

// BreakerConfig holds per-dependency circuit breaker tuning. Payment gets a
// lower threshold and faster reset than email: a flapping payment processor
// is more expensive to retry against.
type BreakerConfig struct {
	PaymentFailureThreshold int
	PaymentResetTimeout     time.Duration
	EmailFailureThreshold   int
	EmailResetTimeout       time.Duration
	DatabaseFailureThreshold int
	DatabaseResetTimeout     time.Duration
	CaptchaFailureThreshold  int
	CaptchaResetTimeout      time.Duration
	SuccessThreshold         int
}

// CaptchaConfig configures the external challenge widget verification.
type CaptchaConfig struct {
	SiteKey   string
	Secret    string
	VerifyURL string
}

// AuditConfig configures the audit pipeline.
type AuditConfig struct {
	BufferSize   int
	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv builds the full configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: ServerConfig{
			Addr:            envStr("BASTION_ADDR", ":8080"),
			ShutdownTimeout: envDuration("BASTION_SHUTDOWN_TIMEOUT", 10*time.Second),
			LogLevel:        envStr("BASTION_LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Challenge: ChallengeConfig{
			DefaultDifficulty: envInt("POW_DEFAULT_DIFFICULTY", 18),
			MaxDifficulty:     envInt("POW_MAX_DIFFICULTY", 24),
			TTL:               envDuration("POW_CHALLENGE_TTL", 5*time.Minute),
			TokenTTL:          envDuration("POW_TOKEN_TTL", 5*time.Minute),
			TokenSigningKey:   envStr("POW_TOKEN_SIGNING_KEY", "dev-secret-key-change-in-production"),
			TokenIssuer:       envStr("POW_TOKEN_ISSUER", "bastion"),
		},
		Guard: GuardConfig{
			TokenTTL:          envDuration("GUARD_TOKEN_TTL", 30*time.Minute),
			MinSubmissionTime: envDuration("GUARD_MIN_SUBMISSION_TIME", 2*time.Second),
		},
		RateLimit: RateLimitConfig{
			FormMaxRequests:    envInt("RATELIMIT_FORM_MAX", 5),
			FormWindow:         envDuration("RATELIMIT_FORM_WINDOW", time.Minute),
			PaymentMaxRequests: envInt("RATELIMIT_PAYMENT_MAX", 10),
			PaymentWindow:      envDuration("RATELIMIT_PAYMENT_WINDOW", time.Hour),
			FailOpen:           envBool("RATELIMIT_FAIL_OPEN", false),
		},
		Fraud: FraudConfig{
			HighAmountThreshold: envFloat("FRAUD_HIGH_AMOUNT_THRESHOLD", 1000),
			HighAmountPoints:    envInt("FRAUD_HIGH_AMOUNT_POINTS", 30),
			SuspiciousPoints:    envInt("FRAUD_SUSPICIOUS_POINTS", 50),
			HourlyAttemptLimit:  envInt("FRAUD_HOURLY_ATTEMPT_LIMIT", 5),
			HourlyPoints:        envInt("FRAUD_HOURLY_POINTS", 40),
			BurstAttemptLimit:   envInt("FRAUD_BURST_ATTEMPT_LIMIT", 2),
			BurstWindow:         envDuration("FRAUD_BURST_WINDOW", 5*time.Minute),
			BurstPoints:         envInt("FRAUD_BURST_POINTS", 60),
			RoundAmountPoints:   envInt("FRAUD_ROUND_AMOUNT_POINTS", 20),
			BotUserAgentPoints:  envInt("FRAUD_BOT_UA_POINTS", 25),
			BlockThreshold:      envInt("FRAUD_BLOCK_THRESHOLD", 80),
			StepUpThreshold:     envInt("FRAUD_STEPUP_THRESHOLD", 60),
			CaptchaThreshold:    envInt("FRAUD_CAPTCHA_THRESHOLD", 40),
			DeclinePenalty:      envInt("FRAUD_DECLINE_PENALTY", 20),
			CooldownPeriod:      envDuration("FRAUD_COOLDOWN_PERIOD", 5*time.Minute),
			VelocityWindow:      envDuration("FRAUD_VELOCITY_WINDOW", time.Hour),
		},
		Breakers: BreakerConfig{
			PaymentFailureThreshold:  envInt("BREAKER_PAYMENT_FAILURES", 3),
			PaymentResetTimeout:      envDuration("BREAKER_PAYMENT_RESET", 30*time.Second),
			EmailFailureThreshold:    envInt("BREAKER_EMAIL_FAILURES", 5),
			EmailResetTimeout:        envDuration("BREAKER_EMAIL_RESET", time.Minute),
			DatabaseFailureThreshold: envInt("BREAKER_DATABASE_FAILURES", 5),
			DatabaseResetTimeout:     envDuration("BREAKER_DATABASE_RESET", 10*time.Second),
			CaptchaFailureThreshold:  envInt("BREAKER_CAPTCHA_FAILURES", 5),
			CaptchaResetTimeout:      envDuration("BREAKER_CAPTCHA_RESET", 30*time.Second),
			SuccessThreshold:         envInt("BREAKER_SUCCESS_THRESHOLD", 3),
		},
		Captcha: CaptchaConfig{
			SiteKey:   os.Getenv("CAPTCHA_SITE_KEY"),
			Secret:    os.Getenv("CAPTCHA_SECRET"),
			VerifyURL: envStr("CAPTCHA_VERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify"),
		},
		Audit: AuditConfig{
			BufferSize:   envInt("AUDIT_BUFFER_SIZE", 1024),
			KafkaBrokers: envList("AUDIT_KAFKA_BROKERS"),
			KafkaTopic:   envStr("AUDIT_KAFKA_TOPIC", "bastion.audit"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
