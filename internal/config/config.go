package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
    "strings"  // strings splits the allowed-origins list
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs.  Secrets are required; a missing secret is a startup-time
// fatal condition, never a per-request error.
type Config struct {
    Env             string   // application environment (e.g. "dev", "prod")
    Port            string   // HTTP port to listen on
    DBUser          string   // database username
    DBPass          string   // database password (optional)
    DBHost          string   // database host address
    DBPort          string   // database port number
    DBName          string   // database name
    AccessSecret    string   // secret used to sign access tokens
    RefreshSecret   string   // secret used to sign refresh tokens
    AccessTTLMin    int      // access token time-to-live in minutes
    RefreshTTLDays  int      // refresh token time-to-live in days
    BcryptCost      int      // bcrypt cost for password hashing
    PaystackSecret  string   // Paystack secret key (bearer auth + webhook HMAC)
    PaystackBaseURL string   // Paystack API base URL (overridable for tests)
    ClientURL       string   // front-end base URL used for payment callbacks
    AllowedOrigins  []string // origins allowed by CORS (credentialed requests)
    GiftThresholdK  int64    // order total in kobo that earns a gift coupon
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:             must("APP_ENV"),                    // environment (dev/test/prod)
        Port:            must("APP_PORT"),                   // port to bind the HTTP server
        DBUser:          must("DB_USER"),                    // database user
        DBPass:          os.Getenv("DB_PASS"),               // database password (empty allowed)
        DBHost:          must("DB_HOST"),                    // database host
        DBPort:          must("DB_PORT"),                    // database port
        DBName:          must("DB_NAME"),                    // database name
        AccessSecret:    must("ACCESS_TOKEN_SECRET"),        // access-token signing key
        RefreshSecret:   must("REFRESH_TOKEN_SECRET"),       // refresh-token signing key
        AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),    // TTL for access tokens in minutes
        RefreshTTLDays:  mustInt("REFRESH_TOKEN_TTL_DAYS"),  // TTL for refresh tokens in days
        BcryptCost:      mustInt("BCRYPT_COST"),             // bcrypt cost factor
        PaystackSecret:  must("PAYSTACK_SECRET_KEY"),        // gateway shared secret
        PaystackBaseURL: getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
        ClientURL:       must("CLIENT_URL"),                 // deployed front-end URL
        AllowedOrigins:  splitOrigins(getenv("ALLOWED_ORIGINS", "")),
        GiftThresholdK:  int64(envInt("GIFT_COUPON_THRESHOLD_KOBO", 2000000)),
    }
}

// splitOrigins parses a comma-separated origin list.  The client URL is the
// usual single entry; extra origins (local dev servers) may be appended.
func splitOrigins(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
