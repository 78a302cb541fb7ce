package config

// Redis backs the credential rate limiter and the catalog response cache.
// Both degrade to pass-through when the client is nil, so a failed ping at
// startup is reported to the caller rather than treated as fatal.

import (
    "context"
    "crypto/tls"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds connection parameters for Redis.
//   REDIS_ADDR – host:port (REDIS_HOST and REDIS_PORT take precedence when both are set)
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS
//   REDIS_DISABLED – skip Redis entirely
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
    Disabled bool
}

func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
        addr = host + ":" + port
    }
    return RedisConfig{
        Addr:     addr,
        Password: envStr("REDIS_PASSWORD", ""),
        DB:       envInt("REDIS_DB", 0),
        TLS:      envBool("REDIS_TLS", false),
        Disabled: envBool("REDIS_DISABLED", false),
    }
}

// NewRedisClient connects and pings Redis with a short timeout.  It returns
// (nil, nil) when Redis is disabled.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
    if cfg.Disabled {
        return nil, nil
    }
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.Addr,
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(pingCtx).Err(); err != nil {
        _ = client.Close()
        return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
    }
    return client, nil
}
