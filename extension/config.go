package extension

import "github.com/xraph/handlepay/types"

// Config holds the HandlePay extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.handlepay" or "handlepay" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// FeeRate is the dispatcher fee in basis points (default: 100 = 1%).
	FeeRate uint32 `json:"fee_rate" mapstructure:"fee_rate" yaml:"fee_rate"`

	// WithdrawFeeRate is the vault withdrawal fee in basis points
	// (default: 100 = 1%).
	WithdrawFeeRate uint32 `json:"withdraw_fee_rate" mapstructure:"withdraw_fee_rate" yaml:"withdraw_fee_rate"`

	// FeeReceiver is the address allowed to claim accumulated fees on
	// both the dispatcher and the vault. When stakeholders are
	// configured, the distributor's address is used instead.
	FeeReceiver string `json:"fee_receiver" mapstructure:"fee_receiver" yaml:"fee_receiver"`

	// Admin is the address allowed to change fee rates and receivers.
	Admin string `json:"admin" mapstructure:"admin" yaml:"admin"`

	// DispatcherAddress overrides the dispatcher's custody address.
	DispatcherAddress string `json:"dispatcher_address" mapstructure:"dispatcher_address" yaml:"dispatcher_address"`

	// VaultAddress overrides the vault's custody address.
	VaultAddress string `json:"vault_address" mapstructure:"vault_address" yaml:"vault_address"`

	// Stakeholders configures the fee distributor. When exactly two are
	// present, a distributor is constructed and wired as the fee
	// receiver of the dispatcher and the vault. Shares must sum to
	// 10000 basis points.
	Stakeholders []StakeholderConfig `json:"stakeholders" mapstructure:"stakeholders" yaml:"stakeholders"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// StakeholderConfig is one fee distributor stakeholder.
type StakeholderConfig struct {
	Address string `json:"address" mapstructure:"address" yaml:"address"`
	Share   uint32 `json:"share" mapstructure:"share" yaml:"share"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		FeeRate:         100,
		WithdrawFeeRate: 100,
	}
}

func (c Config) feeRate() types.BasisPoints         { return types.BasisPoints(c.FeeRate) }
func (c Config) withdrawFeeRate() types.BasisPoints { return types.BasisPoints(c.WithdrawFeeRate) }
