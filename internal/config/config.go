package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	AppEnv   string
	HTTPAddr string
	LogLevel string

	DatabaseURL string

	JWTIssuer           string
	JWTAccessSecret     string
	JWTRefreshSecret    string
	AccessTokenTTLMin   int
	RefreshTokenTTLDays int

	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPass         string
	SMTPFrom         string
	SendGridAPIKey   string
	MailFromName     string
	OrderNotifyEmail string

	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	ShopCountry           string

	CartTTL        time.Duration
	SearchDebounce time.Duration
	RequestTimeout time.Duration

	KafkaBrokers string
	KafkaTopic   string
	OutboxPoll   time.Duration
}

func Load() Config {
	return Config{
		AppEnv:   get("APP_ENV", "dev"),
		HTTPAddr: get("HTTP_ADDR", ":8080"),
		LogLevel: get("LOG_LEVEL", "info"),

		DatabaseURL: get("DATABASE_URL", ""),

		JWTIssuer:           get("JWT_ISSUER", "storefront"),
		JWTAccessSecret:     get("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret:    get("JWT_REFRESH_SECRET", ""),
		AccessTokenTTLMin:   getInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTokenTTLDays: getInt("REFRESH_TOKEN_TTL_DAYS", 30),

		SMTPHost:         get("SMTP_HOST", ""),
		SMTPPort:         getInt("SMTP_PORT", 587),
		SMTPUser:         get("SMTP_USER", ""),
		SMTPPass:         get("SMTP_PASS", ""),
		SMTPFrom:         get("SMTP_FROM", ""),
		SendGridAPIKey:   get("SENDGRID_API_KEY", ""),
		MailFromName:     get("MAIL_FROM_NAME", "Storefront"),
		OrderNotifyEmail: get("ORDER_NOTIFY_EMAIL", ""),

		FreeShippingThreshold: getDecimal("FREE_SHIPPING_THRESHOLD", decimal.NewFromInt(50)),
		ShippingFee:           getDecimal("SHIPPING_FEE", decimal.RequireFromString("9.99")),
		ShopCountry:           get("SHOP_COUNTRY", "Morocco"),

		CartTTL:        time.Duration(getInt("CART_TTL_HOURS", 7*24)) * time.Hour,
		SearchDebounce: time.Duration(getInt("SEARCH_DEBOUNCE_MS", 300)) * time.Millisecond,
		RequestTimeout: time.Duration(getInt("REQUEST_TIMEOUT_MS", 10000)) * time.Millisecond,

		KafkaBrokers: get("KAFKA_BROKERS", ""),
		KafkaTopic:   get("KAFKA_TOPIC", "storefront.orders"),
		OutboxPoll:   time.Duration(getInt("OUTBOX_POLL_MS", 2000)) * time.Millisecond,
	}
}

// Validate reports settings the API cannot start without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTAccessSecret == "" || c.JWTRefreshSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required"))
	}
	return errors.Join(errs...)
}

// MailEnabled reports whether new-order mail can be sent at all.
func (c Config) MailEnabled() bool {
	return c.OrderNotifyEmail != "" && (c.SendGridAPIKey != "" || c.SMTPHost != "")
}

func (c Config) IsDev() bool {
	return c.AppEnv == "dev"
}

func get(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getDecimal(k string, def decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(k); v != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err == nil && !d.IsNegative() {
			return d
		}
	}
	return def
}
