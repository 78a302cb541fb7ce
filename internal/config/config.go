package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "os"
    "strings"
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Cache, rate-limit and Redis settings have their
// own loaders in this package.
type Config struct {
    Env            string        // application environment (development, production)
    Port           string        // HTTP port to listen on
    DBUser         string        // database username
    DBPass         string        // database password (optional)
    DBHost         string        // database host address
    DBPort         string        // database port number
    DBName         string        // database name
    JWTSecret      string        // secret used to sign session tokens
    SessionTTL     time.Duration // lifetime of a default session token
    RememberTTL    time.Duration // lifetime of a "remember me" session token
    ResetTTL       time.Duration // lifetime of a password-reset ticket
    BcryptCost     int           // bcrypt cost for password hashing
    SessionCookie  string        // name of the session cookie
    ClientURL      string        // frontend origin used in reset links and OIDC redirects
    PublicBaseURL  string        // externally visible base URL of this API
    UploadDir      string        // directory for stored poster images
    CORSOrigins    []string      // allowed browser origins; empty allows any
    AdminEmail     string        // bootstrap admin account (optional)
    AdminPassword  string        // bootstrap admin password (optional)
    RabbitMQURL    string        // broker for reset-mail delivery (optional)
    MailFrom       string        // sender address of outgoing mail
    SMTP           SMTPConfig
    OIDC           OIDCConfig
}

// SMTPConfig configures outgoing mail.  When Host is empty, mail is logged
// instead of sent.
type SMTPConfig struct {
    Host     string
    Port     int
    User     string
    Password string
}

// Enabled reports whether an SMTP relay is configured.
func (s SMTPConfig) Enabled() bool { return s.Host != "" }

// OIDCConfig configures "continue with Google" (or any OIDC provider).
// When ProviderURL is empty the login route answers 501.
type OIDCConfig struct {
    ProviderURL  string
    ClientID     string
    ClientSecret string
    RedirectURL  string
}

// Enabled reports whether an OIDC provider is configured.
func (o OIDCConfig) Enabled() bool { return o.ProviderURL != "" && o.ClientID != "" }

// IsProduction reports whether internal error details must be hidden.
func (c Config) IsProduction() bool {
    switch strings.ToLower(c.Env) {
    case "prod", "production":
        return true
    }
    return false
}

// Load reads configuration values from environment variables.  Required
// variables that are missing are reported together in the returned error.
func Load() (Config, error) {
    var missing []string
    must := func(key string) string {
        v, ok := os.LookupEnv(key)
        if !ok || strings.TrimSpace(v) == "" {
            missing = append(missing, key)
        }
        return v
    }

    cfg := Config{
        Env:           envStr("APP_ENV", "development"),
        Port:          envStr("APP_PORT", "5000"),
        DBUser:        must("DB_USER"),
        DBPass:        os.Getenv("DB_PASS"),
        DBHost:        must("DB_HOST"),
        DBPort:        envStr("DB_PORT", "3306"),
        DBName:        must("DB_NAME"),
        JWTSecret:     must("JWT_SECRET"),
        SessionTTL:    envTTL("SESSION_TTL", 15*time.Minute),
        RememberTTL:   envTTL("REMEMBER_TTL", 7*24*time.Hour),
        ResetTTL:      envTTL("RESET_TTL", 15*time.Minute),
        BcryptCost:    envInt("BCRYPT_COST", 10),
        SessionCookie: envStr("SESSION_COOKIE", "token"),
        ClientURL:     strings.TrimRight(envStr("CLIENT_URL", "http://localhost:3000"), "/"),
        UploadDir:     envStr("UPLOAD_DIR", "uploads"),
        CORSOrigins:   splitList(os.Getenv("CORS_ORIGINS")),
        AdminEmail:    os.Getenv("ADMIN_EMAIL"),
        AdminPassword: os.Getenv("ADMIN_PASSWORD"),
        RabbitMQURL:   firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
        MailFrom:      envStr("MAIL_FROM", "no-reply@streaming-catalog.local"),
        SMTP: SMTPConfig{
            Host:     os.Getenv("SMTP_HOST"),
            Port:     envInt("SMTP_PORT", 587),
            User:     os.Getenv("SMTP_USER"),
            Password: os.Getenv("SMTP_PASS"),
        },
        OIDC: OIDCConfig{
            ProviderURL:  envStr("OIDC_PROVIDER", ""),
            ClientID:     os.Getenv("OIDC_CLIENT_ID"),
            ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
            RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
        },
    }
    cfg.PublicBaseURL = strings.TrimRight(envStr("PUBLIC_BASE_URL", "http://localhost:"+cfg.Port), "/")

    if len(missing) > 0 {
        return cfg, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
    }
    if len(cfg.JWTSecret) < 16 {
        return cfg, errors.New("JWT_SECRET must be at least 16 characters")
    }
    if cfg.SessionTTL <= 0 || cfg.RememberTTL < cfg.SessionTTL {
        return cfg, errors.New("REMEMBER_TTL must be >= SESSION_TTL > 0")
    }
    return cfg, nil
}

func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

func firstNonEmpty(vals ...string) string {
    for _, v := range vals {
        if v != "" {
            return v
        }
    }
    return ""
}
