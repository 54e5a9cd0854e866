package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, uint64(11155111), cfg.ChainID)
	require.Equal(t, 120*time.Second, cfg.ConfirmWait)
	require.Equal(t, 300*time.Second, cfg.ContentWait)

	require.True(t, cfg.Fees.FlatFee.Equal(decimal.RequireFromString("0.0001")))
	require.True(t, cfg.Fees.Rate.Equal(decimal.RequireFromString("0.02")))
	require.False(t, cfg.Fees.EnforceAltMinimum)

	cts, err := cfg.ContractsFor(11155111)
	require.NoError(t, err)
	require.Equal(t, "0x1f4feC708F7Ff9186e760B1754dCb7927a57E6fd", cts.UntilThen.Hex())

	_, err = cfg.ContractsFor(1)
	require.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("UNTILTHEN_RPC_URL", "wss://sepolia.example/ws")
	t.Setenv("UNTILTHEN_CONFIRM_WAIT", "5s")
	t.Setenv("UNTILTHEN_FEES_FLAT_FEE", "0.0002")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "wss://sepolia.example/ws", cfg.RPCURL)
	require.Equal(t, 5*time.Second, cfg.ConfirmWait)
	require.True(t, cfg.Fees.FlatFee.Equal(decimal.RequireFromString("0.0002")))
}

func TestLoad_BadFee(t *testing.T) {
	t.Setenv("UNTILTHEN_FEES_RATE", "not-a-number")
	_, err := Load("")
	require.Error(t, err)
}
