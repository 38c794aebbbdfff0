package config // package config loads application configuration from environment variables

import (
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env         string // application environment (e.g. "dev", "prod")
	Port        string // HTTP port to listen on
	DBUser      string // database username
	DBPass      string // database password (optional)
	DBHost      string // database host address
	DBPort      string // database port number
	DBName      string // database name
	SSOSecret   string // secret used to sign all one-time credential tokens
	AppName     string // product name injected into outbound notification subjects
	WebURL      string // public base URL used to build verification/reset links
	ResetTTLMin int    // reset/signup token time-to-live in minutes
	BcryptCost  int    // bcrypt cost for password hashing
	AMQPURL     string // RabbitMQ URL for the notification queue (optional)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Variables with a
// sensible default fall back through the env* helpers in ratelimit.go.
func Load() Config {
	return Config{
		Env:         must("APP_ENV"),                    // environment (dev/test/prod)
		Port:        must("APP_PORT"),                   // port to bind the HTTP server
		DBUser:      must("DB_USER"),                    // database user
		DBPass:      os.Getenv("DB_PASS"),               // database password (empty allowed)
		DBHost:      must("DB_HOST"),                    // database host
		DBPort:      must("DB_PORT"),                    // database port
		DBName:      must("DB_NAME"),                    // database name
		SSOSecret:   must("PRIVATE_SSO_KEY"),            // signing secret shared by all token purposes
		AppName:     envStr("APP_NAME", "SSO Service"),  // display name for outbound mail
		WebURL:      must("WEB_URL"),                    // base URL for emailed links
		ResetTTLMin: envInt("RESET_TOKEN_TTL_MIN", 500), // one-time token TTL in minutes
		BcryptCost:  envInt("BCRYPT_COST", 10),          // bcrypt cost factor
		AMQPURL:     os.Getenv("RABBITMQ_URL"),          // empty disables the notification queue
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
