package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults are applied", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/gigpay")
		t.Setenv("JWT_ACCESS_SECRET", "secret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
		assert.Equal(t, 7090, cfg.HTTP.Port)
		assert.True(t, cfg.Settlement.DepositLimitRatio.Equal(decimal.New(25, -2)))
		assert.Equal(t, 2, cfg.Settlement.BestClientsLimit)
	})

	t.Run("missing DSN fails", func(t *testing.T) {
		t.Setenv("DB_DSN", "")
		t.Setenv("JWT_ACCESS_SECRET", "secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_DSN")
	})

	t.Run("missing secret fails", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/gigpay")
		t.Setenv("JWT_ACCESS_SECRET", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
	})

	t.Run("ratio outside (0,1] fails", func(t *testing.T) {
		t.Setenv("DB_DSN", "postgres://localhost/gigpay")
		t.Setenv("JWT_ACCESS_SECRET", "secret")
		t.Setenv("DEPOSIT_LIMIT_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DEPOSIT_LIMIT_RATIO")
	})
}
