package ops

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yanun0323/decimal"

	"main/internal/account"
	"main/internal/schema"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Fleet       FleetConfig        `json:"fleet"`
	Exchanges   []ExchangeConfig   `json:"exchanges"`
	Instruments []InstrumentConfig `json:"instruments"`
	Postgres    *PostgresConfig    `json:"postgres"`
	Features    FeatureFlagsConfig `json:"features"`
	Profiling   ProfilingConfig    `json:"profiling"`
}

// FleetConfig defines the account fleet seeded at startup.
type FleetConfig struct {
	Accounts []AccountConfig `json:"accounts"`
}

// AccountConfig describes one account and its sub-accounts.
type AccountConfig struct {
	AccountID   uint32             `json:"accountId"`
	InvestorID  string             `json:"investorId"`
	SubAccounts []SubAccountConfig `json:"subAccounts"`
}

// SubAccountConfig describes a sub-account entry.
type SubAccountConfig struct {
	SubAccountID uint32 `json:"subAccountId"`
}

// ExchangeConfig describes an exchange entry.
type ExchangeConfig struct {
	Name string `json:"name"`
}

// InstrumentConfig describes an instrument entry.
type InstrumentConfig struct {
	Code       string          `json:"code"`
	Exchange   string          `json:"exchange"`
	PriceTick  decimal.Decimal `json:"priceTick"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// PostgresConfig describes the optional fleet seed database. When present
// the fleet is loaded from Postgres instead of the JSON fleet block.
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// FeatureFlagsConfig captures optional runtime flags.
type FeatureFlagsConfig struct {
	EnableReportQueue *bool `json:"enableReportQueue"`
	EnableMetrics     *bool `json:"enableMetrics"`
}

// FeatureFlags are resolved runtime flags.
type FeatureFlags struct {
	EnableReportQueue bool
	EnableMetrics     bool
}

// ProfilingConfig enables continuous profiling when a server address is set.
type ProfilingConfig struct {
	ServerAddress string `json:"serverAddress"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Fleet       []*account.SubAccount
	Instruments *schema.InstrumentRegistry
	Postgres    *PostgresConfig
	Features    FeatureFlags
	Profiling   ProfilingConfig
}

// Load reads a JSON config file and resolves the fleet and instrument table.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	fleet, err := buildFleet(cfg.Fleet)
	if err != nil {
		return Loaded{}, err
	}
	instruments, err := buildInstruments(cfg.Exchanges, cfg.Instruments)
	if err != nil {
		return Loaded{}, err
	}
	return Loaded{
		Fleet:       fleet,
		Instruments: instruments,
		Postgres:    cfg.Postgres,
		Features:    resolveFeatures(cfg.Features),
		Profiling:   cfg.Profiling,
	}, nil
}

func buildFleet(cfg FleetConfig) ([]*account.SubAccount, error) {
	var fleet []*account.SubAccount
	for _, acctCfg := range cfg.Accounts {
		if acctCfg.AccountID == 0 {
			return nil, fmt.Errorf("account id must be > 0")
		}
		if acctCfg.InvestorID == "" {
			return nil, fmt.Errorf("investor id is empty for account %d", acctCfg.AccountID)
		}
		if len(acctCfg.SubAccounts) == 0 {
			return nil, fmt.Errorf("account %d has no sub-accounts", acctCfg.AccountID)
		}
		acct := account.NewAccount(acctCfg.AccountID, acctCfg.InvestorID)
		for _, subCfg := range acctCfg.SubAccounts {
			if subCfg.SubAccountID == 0 {
				return nil, fmt.Errorf("sub-account id must be > 0 under account %d", acctCfg.AccountID)
			}
			if subCfg.SubAccountID == account.ExternalSubAccountID {
				return nil, fmt.Errorf("sub-account id %d is reserved", subCfg.SubAccountID)
			}
			fleet = append(fleet, account.NewSubAccount(subCfg.SubAccountID, acct))
		}
	}
	return fleet, nil
}

func buildInstruments(exchanges []ExchangeConfig, instruments []InstrumentConfig) (*schema.InstrumentRegistry, error) {
	reg := schema.NewInstrumentRegistry()
	for _, ex := range exchanges {
		if _, err := reg.AddExchange(ex.Name); err != nil {
			return nil, err
		}
	}
	for _, inst := range instruments {
		exchangeID, ok := reg.ExchangeIDByName(inst.Exchange)
		if !ok {
			return nil, fmt.Errorf("exchange not found: %s", inst.Exchange)
		}
		if _, err := reg.AddInstrument(inst.Code, exchangeID, inst.PriceTick, inst.Multiplier); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func resolveFeatures(cfg FeatureFlagsConfig) FeatureFlags {
	flags := FeatureFlags{
		EnableReportQueue: true,
		EnableMetrics:     true,
	}
	if cfg.EnableReportQueue != nil {
		flags.EnableReportQueue = *cfg.EnableReportQueue
	}
	if cfg.EnableMetrics != nil {
		flags.EnableMetrics = *cfg.EnableMetrics
	}
	return flags
}
