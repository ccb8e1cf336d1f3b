package store

import (
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("TRADER_MODE", "")
	c, err := Parse([]byte("watchlist:\n  default: [AAPL, TSLA]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Mode != ModeDryRun {
		t.Errorf("expected DRY_RUN default, got %s", c.Mode)
	}
	if c.Trading.RiskPercentage != 0.02 || c.Trading.MaxContracts != 5 || c.Trading.OptionExpiryMonths != 8 {
		t.Errorf("unexpected trading defaults %+v", c.Trading)
	}
	if c.Trading.ProfitTarget != 0.15 || c.Trading.MinConfidence != 0.5 || c.Trading.MaxOpportunities != 3 {
		t.Errorf("unexpected trading defaults %+v", c.Trading)
	}
	if c.Cache.TTL != 12*time.Hour {
		t.Errorf("expected 12h ttl, got %v", c.Cache.TTL)
	}
	if len(c.Watchlist.Default) != 2 {
		t.Errorf("configured watchlist should win, got %v", c.Watchlist.Default)
	}
}

func TestParseDurations(t *testing.T) {
	t.Setenv("TRADER_MODE", "")
	c, err := Parse([]byte("cache:\n  ttl: 30m\nnetwork:\n  request_timeout: 5s\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Cache.TTL != 30*time.Minute || c.Network.RequestTimeout != 5*time.Second {
		t.Errorf("unexpected durations %v %v", c.Cache.TTL, c.Network.RequestTimeout)
	}
}

func TestParseEnvSecrets(t *testing.T) {
	t.Setenv("ALPACA_API_KEY", "kid")
	t.Setenv("ALPACA_SECRET_KEY", "sec")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("TRADER_MODE", "live")
	c, err := Parse([]byte(""))
	if err != nil {
		t.Fatal(err)
	}
	if c.Alpaca.KeyID != "kid" || c.Alpaca.SecretKey != "sec" || c.Alert.ChatID != -100123 {
		t.Errorf("env secrets not applied: %+v %+v", c.Alpaca, c.Alert)
	}
	if c.Mode != ModeLive {
		t.Errorf("expected LIVE from env, got %s", c.Mode)
	}
}

func TestValidateRejects(t *testing.T) {
	t.Setenv("TRADER_MODE", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad mode", "mode: PAPER\n", "invalid mode"},
		{"risk too high", "trading:\n  risk_percentage: 2\n", "risk_percentage"},
		{"bad provider", "alert:\n  provider: email\n", "alert.provider"},
		{"bad timezone", "schedule:\n  timezone: Mars/Base\n", "timezone"},
		{"negative contracts", "trading:\n  max_contracts: -1\n", "max_contracts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
