package utils

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/mileusna/useragent"
)

func GetDeviceType(ua *useragent.UserAgent) string {
	if ua.Mobile {
		return "Mobile"
	} else if ua.Tablet {
		return "Tablet"
	} else if ua.Desktop {
		return "Desktop"
	} else if ua.Bot {
		return "Bot"
	} else {
		return "Unknown"
	}
}

// GetTrafficSource buckets a referrer into a coarse acquisition channel.
func GetTrafficSource(referrer string) string {
	if referrer == "" {
		return "Direct"
	}

	parsed, err := url.Parse(referrer)
	if err != nil || parsed.Host == "" {
		return "Direct"
	}

	host := strings.ToLower(parsed.Host)
	switch {
	case strings.Contains(host, "google.") || strings.Contains(host, "bing.") || strings.Contains(host, "duckduckgo."):
		return "Search"
	case strings.Contains(host, "facebook.") || strings.Contains(host, "instagram.") ||
		strings.Contains(host, "twitter.") || strings.Contains(host, "x.com") ||
		strings.Contains(host, "linkedin.") || strings.Contains(host, "tiktok."):
		return "Social"
	default:
		return "Referral"
	}
}

// GetIPAddress tries the usual proxy headers before falling back to RemoteAddr.
func GetIPAddress(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// first hop is the client
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

// ClampPercent keeps a computed rate inside [0, 100].
func ClampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Percent computes numerator/denominator as a clamped percentage. A zero
// denominator yields 0, never NaN.
func Percent(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	return ClampPercent(float64(numerator) / float64(denominator) * 100)
}
