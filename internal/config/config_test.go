package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MIN_WITHDRAW", "")
	t.Setenv("GAMEPASS_FEE_RATE", "")
	t.Setenv("OUTBOX_RETRY_INTERVAL", "")

	cfg := LoadConfig()
	assert.Equal(t, DefaultGameConfig(), cfg.Game)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("MIN_WITHDRAW", "10")
	t.Setenv("REFERRAL_BONUS_RATE", "0.25")
	t.Setenv("OUTBOX_RETRY_INTERVAL", "5s")
	t.Setenv("JACKPOT_INCREMENT_PER_MINUTE", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, int64(10), cfg.Game.MinWithdraw)
	assert.Equal(t, 0.25, cfg.Game.ReferralBonusRate)
	assert.Equal(t, 5*time.Second, cfg.Game.OutboxRetryInterval)
	assert.Equal(t, int64(100), cfg.Game.JackpotIncrementPerMinute)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "wheel"}
	assert.Equal(t, "u:p@tcp(h:3306)/wheel?parseTime=true", cfg.DSN())
}
