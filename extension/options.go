package extension

import (
	handlepay "github.com/xraph/handlepay"
	"github.com/xraph/handlepay/asset"
	"github.com/xraph/handlepay/identity"
	"github.com/xraph/handlepay/plugin"
	"github.com/xraph/handlepay/store"
	"github.com/xraph/handlepay/vault"
)

// Option configures the HandlePay Forge extension.
type Option func(*Extension)

// WithStore sets the store shared by the dispatcher and the vault.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithRegistry sets the identity registry used to resolve handles.
func WithRegistry(r identity.Registry) Option {
	return func(e *Extension) {
		e.registry = r
	}
}

// WithMover sets the asset custody layer.
func WithMover(m asset.Mover) Option {
	return func(e *Extension) {
		e.mover = m
	}
}

// WithDispatcherOption passes a handlepay.Option through to the dispatcher.
func WithDispatcherOption(opt handlepay.Option) Option {
	return func(e *Extension) {
		e.dispatcherOpts = append(e.dispatcherOpts, opt)
	}
}

// WithVaultOption passes a vault.Option through to the vault.
func WithVaultOption(opt vault.Option) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, opt)
	}
}

// WithPlugin registers a plugin on both the dispatcher and the vault.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.dispatcherOpts = append(e.dispatcherOpts, handlepay.WithPlugin(p))
		e.vaultOpts = append(e.vaultOpts, vault.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithFeeRate sets the dispatcher fee in basis points.
func WithFeeRate(rate uint32) Option {
	return func(e *Extension) { e.config.FeeRate = rate }
}

// WithWithdrawFeeRate sets the vault withdrawal fee in basis points.
func WithWithdrawFeeRate(rate uint32) Option {
	return func(e *Extension) { e.config.WithdrawFeeRate = rate }
}

// WithFeeReceiver sets the address allowed to claim accumulated fees.
// Ignored when stakeholders are configured.
func WithFeeReceiver(addr string) Option {
	return func(e *Extension) { e.config.FeeReceiver = addr }
}

// WithExtensionAdmin sets the administrative authority for fee changes.
func WithExtensionAdmin(addr string) Option {
	return func(e *Extension) { e.config.Admin = addr }
}

// WithStakeholders configures the fee distributor. Exactly two
// stakeholders whose shares sum to 10000 basis points are required.
func WithStakeholders(stakeholders ...StakeholderConfig) Option {
	return func(e *Extension) { e.config.Stakeholders = stakeholders }
}
