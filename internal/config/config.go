// Package config loads process configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/untilthen/untilthen-go/internal/fees"
)

// Contracts holds the per-network contract addresses the workflow talks to.
type Contracts struct {
	UntilThen common.Address // custody contract
	GiftNFT   common.Address // collectible contract
	LinkToken common.Address // alternate ERC-20 token
}

// Pinata holds the storage collaborator credentials and group identifiers.
type Pinata struct {
	JWT            string
	Gateway        string // e.g. https://example.mypinata.cloud
	APIBase        string // https://api.pinata.cloud unless overridden in tests
	UploadBase     string // https://uploads.pinata.cloud unless overridden
	PrivateGroupID string
	PublicGroupID  string
}

// Config is the root configuration consumed by cmd/server and cmd/cli.
type Config struct {
	RPCURL  string
	ChainID uint64

	Networks map[uint64]Contracts

	// ConfirmWait bounds creation- and claim-event waits; ContentWait bounds
	// the oracle-driven content publication wait, which depends on an
	// off-chain computation and gets a longer budget.
	ConfirmWait time.Duration
	ContentWait time.Duration

	Fees   fees.Params
	Pinata Pinata

	// NoisyLogSubstrings are dropped by the logging filter at the boundary.
	NoisyLogSubstrings []string
}

// ContractsFor returns the address book for the configured chain.
func (c *Config) ContractsFor(chainID uint64) (Contracts, error) {
	cts, ok := c.Networks[chainID]
	if !ok {
		return Contracts{}, fmt.Errorf("no contracts configured for chain %d", chainID)
	}
	return cts, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rpc_url", "")
	v.SetDefault("chain_id", 11155111)
	v.SetDefault("confirm_wait", "120s")
	v.SetDefault("content_wait", "300s")

	v.SetDefault("fees.flat_fee", "0.0001")
	v.SetDefault("fees.rate", "0.02")
	v.SetDefault("fees.floor_native", "0.0001")
	v.SetDefault("fees.floor_alt", "0.01")
	v.SetDefault("fees.content_fee", "0.0005")
	v.SetDefault("fees.enforce_alt_minimum", false)

	v.SetDefault("pinata.api_base", "https://api.pinata.cloud")
	v.SetDefault("pinata.upload_base", "https://uploads.pinata.cloud")

	// Sepolia deployment.
	v.SetDefault("networks.11155111.until_then", "0x1f4feC708F7Ff9186e760B1754dCb7927a57E6fd")
	v.SetDefault("networks.11155111.gift_nft", "0x1F4049fa16602F502aFe74Ae2317413F7b43E885")
	v.SetDefault("networks.11155111.link_token", "0xf8Fb3713D459D7C1018BD0A49D19b4C44290EBE5")
}

// Load reads configuration from the optional file at path plus UNTILTHEN_*
// environment variables. Environment always wins.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("untilthen")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		RPCURL:             v.GetString("rpc_url"),
		ChainID:            v.GetUint64("chain_id"),
		ConfirmWait:        v.GetDuration("confirm_wait"),
		ContentWait:        v.GetDuration("content_wait"),
		NoisyLogSubstrings: v.GetStringSlice("noisy_log_substrings"),
		Pinata: Pinata{
			JWT:            v.GetString("pinata.jwt"),
			Gateway:        v.GetString("pinata.gateway"),
			APIBase:        v.GetString("pinata.api_base"),
			UploadBase:     v.GetString("pinata.upload_base"),
			PrivateGroupID: v.GetString("pinata.private_group_id"),
			PublicGroupID:  v.GetString("pinata.public_group_id"),
		},
	}

	var err error
	if cfg.Fees, err = parseFees(v); err != nil {
		return nil, err
	}
	if cfg.Networks, err = parseNetworks(v); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseFees(v *viper.Viper) (fees.Params, error) {
	parse := func(key string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(v.GetString(key))
		if err != nil {
			return decimal.Zero, fmt.Errorf("config %s: %w", key, err)
		}
		if d.IsNegative() {
			return decimal.Zero, fmt.Errorf("config %s: negative", key)
		}
		return d, nil
	}

	var f fees.Params
	var err error
	if f.FlatFee, err = parse("fees.flat_fee"); err != nil {
		return f, err
	}
	if f.Rate, err = parse("fees.rate"); err != nil {
		return f, err
	}
	if f.FloorNative, err = parse("fees.floor_native"); err != nil {
		return f, err
	}
	if f.FloorAlt, err = parse("fees.floor_alt"); err != nil {
		return f, err
	}
	if f.ContentFee, err = parse("fees.content_fee"); err != nil {
		return f, err
	}
	f.EnforceAltMinimum = v.GetBool("fees.enforce_alt_minimum")
	return f, nil
}

func parseNetworks(v *viper.Viper) (map[uint64]Contracts, error) {
	out := make(map[uint64]Contracts)
	for idStr := range v.GetStringMap("networks") {
		var id uint64
		if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
			return nil, fmt.Errorf("config networks.%s: bad chain id", idStr)
		}
		prefix := "networks." + idStr + "."
		cts := Contracts{}
		for key, dst := range map[string]*common.Address{
			"until_then": &cts.UntilThen,
			"gift_nft":   &cts.GiftNFT,
			"link_token": &cts.LinkToken,
		} {
			raw := v.GetString(prefix + key)
			if !common.IsHexAddress(raw) {
				return nil, fmt.Errorf("config %s%s: bad address %q", prefix, key, raw)
			}
			*dst = common.HexToAddress(raw)
		}
		out[id] = cts
	}
	return out, nil
}
