package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/mileusna/useragent"
	"github.com/stretchr/testify/assert"
)

func TestGetDeviceType(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      string
	}{
		{
			name:      "iphone",
			userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1",
			want:      "Mobile",
		},
		{
			name:      "ipad",
			userAgent: "Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1",
			want:      "Tablet",
		},
		{
			name:      "desktop chrome",
			userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			want:      "Desktop",
		},
		{
			name:      "googlebot",
			userAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			want:      "Bot",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ua := useragent.Parse(tt.userAgent)
			assert.Equal(t, tt.want, GetDeviceType(&ua))
		})
	}
}

func TestGetTrafficSource(t *testing.T) {
	tests := []struct {
		referrer string
		want     string
	}{
		{"", "Direct"},
		{"not a url at all", "Direct"},
		{"https://www.google.com/search?q=pizza", "Search"},
		{"https://www.bing.com/search?q=pizza", "Search"},
		{"https://duckduckgo.com/?q=pizza", "Search"},
		{"https://www.facebook.com/somepage", "Social"},
		{"https://www.instagram.com/", "Social"},
		{"https://x.com/somebody/status/1", "Social"},
		{"https://www.linkedin.com/feed/", "Social"},
		{"https://blog.example.com/post", "Referral"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetTrafficSource(tt.referrer), "referrer %q", tt.referrer)
	}
}

func TestGetIPAddress(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.5:43210"
	assert.Equal(t, "203.0.113.5", GetIPAddress(r))

	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", GetIPAddress(r))

	r.Header.Set("X-Forwarded-For", "192.0.2.1, 203.0.113.5")
	assert.Equal(t, "192.0.2.1", GetIPAddress(r))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 0.0, Percent(0, 10))
	assert.Equal(t, 50.0, Percent(1, 2))
	assert.Equal(t, 100.0, Percent(10, 10))
	// never over 100 even when the numerator exceeds the denominator
	assert.Equal(t, 100.0, Percent(3, 2))
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0.0, ClampPercent(-10))
	assert.Equal(t, 42.5, ClampPercent(42.5))
	assert.Equal(t, 100.0, ClampPercent(250))
}
