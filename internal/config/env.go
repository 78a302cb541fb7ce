package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// Helpers shared by every loader in this package.  Unset or unparsable
// values fall back to the given default.

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}

// envTTL is envDur plus a day suffix ("7d"), which token lifetimes are
// usually written in.
func envTTL(k string, d time.Duration) time.Duration {
    v := strings.TrimSpace(os.Getenv(k))
    if v == "" { return d }
    if ttl, ok := parseTTL(v); ok { return ttl }
    return d
}

func parseTTL(s string) (time.Duration, bool) {
    if strings.HasSuffix(s, "d") {
        n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
        if err != nil || n < 0 { return 0, false }
        return time.Duration(n) * 24 * time.Hour, true
    }
    dur, err := time.ParseDuration(s)
    if err != nil { return 0, false }
    return dur, true
}
