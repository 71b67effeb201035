package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses token lifetimes
)

// LongLivedTokenTTL is the lifetime of registration and admin tokens: 95
// years of 365.25 days.  Such tokens never expire in practice.
const LongLivedTokenTTL = 832770 * time.Hour

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database and secret values are required; the
// rest fall back to defaults matching the storefront's historical behaviour.
type Config struct {
    Env                string        // application environment (e.g. "dev", "prod")
    Port               string        // HTTP port to listen on
    DBUser             string        // database username
    DBPass             string        // database password (optional)
    DBHost             string        // database host address
    DBPort             string        // database port number
    DBName             string        // database name
    DBMigrate          bool          // apply embedded migrations at boot
    JWTSecret          string        // secret used to sign session tokens
    BcryptCost         int           // bcrypt cost for password hashing
    SessionTTL         time.Duration // lifetime of login and refresh tokens
    LongTTL            time.Duration // lifetime of registration and admin tokens
    UploadRoot         string        // directory under which games/, images/, video/ live
    PublicDir          string        // SPA bundle served for non-API paths
    TrustLegacyHeaders bool          // accept user_id / is_admin request headers as identity
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:                envStr("APP_ENV", "dev"),                      // environment (dev/test/prod)
        Port:               envStr("PORT", "5000"),                        // port to bind the HTTP server
        DBUser:             must("DB_USER"),                               // database user
        DBPass:             os.Getenv("DB_PASSWORD"),                      // database password (empty allowed)
        DBHost:             must("DB_HOST"),                               // database host
        DBPort:             envStr("DB_PORT", "3306"),                     // database port
        DBName:             must("DB_NAME"),                               // database name
        DBMigrate:          envBool("DB_MIGRATE", true),                   // run migrations before serving
        JWTSecret:          must("JWT_SECRET"),                            // secret used for signing tokens
        BcryptCost:         envInt("BCRYPT_COST", 10),                     // bcrypt cost factor
        SessionTTL:         envDur("SESSION_TOKEN_TTL", time.Hour),        // short-lived token lifetime
        LongTTL:            envDur("LONG_TOKEN_TTL", LongLivedTokenTTL),   // long-lived token lifetime
        UploadRoot:         envStr("UPLOAD_ROOT", "."),                    // media root directory
        PublicDir:          envStr("PUBLIC_DIR", "public"),                // SPA directory
        TrustLegacyHeaders: envBool("TRUST_LEGACY_HEADERS", false),        // header-trust compatibility mode
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

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    switch v {
    case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
        return true
    case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(v); err == nil && dur > 0 {
        return dur
    }
    return d
}
