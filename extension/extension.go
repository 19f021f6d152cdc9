// Package extension provides the Forge extension adapter for HandlePay.
//
// It implements the forge.Extension interface to integrate HandlePay
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.handlepay" or
// "handlepay" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	handlepay "github.com/xraph/handlepay"
	"github.com/xraph/handlepay/asset"
	"github.com/xraph/handlepay/distributor"
	"github.com/xraph/handlepay/identity"
	"github.com/xraph/handlepay/store"
	"github.com/xraph/handlepay/store/memory"
	"github.com/xraph/handlepay/types"
	"github.com/xraph/handlepay/vault"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "handlepay"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Username-addressed value-transfer engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts HandlePay as a Forge extension. It constructs and
// wires the dispatcher, the vault, and (when stakeholders are
// configured) the fee distributor.
type Extension struct {
	*forge.BaseExtension

	config   Config
	registry identity.Registry
	mover    asset.Mover
	store    store.Store

	dispatcher  *handlepay.Dispatcher
	vault       *vault.Vault
	distributor *distributor.Distributor

	dispatcherOpts []handlepay.Option
	vaultOpts      []vault.Option
}

// New creates a new HandlePay Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dispatcher returns the underlying Dispatcher instance.
// This is nil until Register is called.
func (e *Extension) Dispatcher() *handlepay.Dispatcher { return e.dispatcher }

// Vault returns the underlying Vault instance.
// This is nil until Register is called.
func (e *Extension) Vault() *vault.Vault { return e.vault }

// Distributor returns the fee distributor, or nil when no stakeholders
// are configured.
func (e *Extension) Distributor() *distributor.Distributor { return e.distributor }

// Register implements [forge.Extension]. It loads configuration,
// constructs the engine components, and registers them in the DI
// container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.registry == nil {
		e.registry = identity.NewStatic()
	}
	if e.mover == nil {
		e.mover = asset.NewBank()
	}
	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	if err := e.buildComponents(); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*handlepay.Dispatcher, error) {
		return e.dispatcher, nil
	}); err != nil {
		return err
	}
	if err := vessel.Provide(fapp.Container(), func() (*vault.Vault, error) {
		return e.vault, nil
	}); err != nil {
		return err
	}
	if e.distributor != nil {
		if err := vessel.Provide(fapp.Container(), func() (*distributor.Distributor, error) {
			return e.distributor, nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.dispatcher == nil {
		return errors.New("handlepay: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.dispatcher.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.dispatcher != nil {
		if err := e.dispatcher.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("handlepay: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildComponents constructs the vault, dispatcher, and optional
// distributor from the resolved config.
func (e *Extension) buildComponents() error {
	if e.config.feeRate() > handlepay.MaxFeeRate {
		return fmt.Errorf("handlepay: fee rate %d above ceiling %d", e.config.FeeRate, handlepay.MaxFeeRate)
	}
	if e.config.withdrawFeeRate() > vault.MaxWithdrawFeeRate {
		return fmt.Errorf("handlepay: withdraw fee rate %d above ceiling %d", e.config.WithdrawFeeRate, vault.MaxWithdrawFeeRate)
	}

	feeReceiver := types.Address(e.config.FeeReceiver)
	admin := types.Address(e.config.Admin)

	vaultOpts := []vault.Option{
		vault.WithWithdrawFeeRate(e.config.withdrawFeeRate()),
		vault.WithAdmin(admin),
	}
	if e.config.VaultAddress != "" {
		vaultOpts = append(vaultOpts, vault.WithAddress(types.Address(e.config.VaultAddress)))
	}
	vaultOpts = append(vaultOpts, e.vaultOpts...)

	dispatcherOpts := []handlepay.Option{
		handlepay.WithFeeRate(e.config.feeRate()),
		handlepay.WithAdmin(admin),
	}
	if e.config.DispatcherAddress != "" {
		dispatcherOpts = append(dispatcherOpts, handlepay.WithAddress(types.Address(e.config.DispatcherAddress)))
	}
	dispatcherOpts = append(dispatcherOpts, e.dispatcherOpts...)

	// With exactly two stakeholders, the distributor becomes the fee
	// receiver for both components.
	if n := len(e.config.Stakeholders); n == 2 {
		first := distributor.Stakeholder{
			Address: types.Address(e.config.Stakeholders[0].Address),
			Share:   types.BasisPoints(e.config.Stakeholders[0].Share),
		}
		second := distributor.Stakeholder{
			Address: types.Address(e.config.Stakeholders[1].Address),
			Share:   types.BasisPoints(e.config.Stakeholders[1].Share),
		}
		dist, err := distributor.New(e.mover, first, second,
			distributor.WithAdmin(admin),
		)
		if err != nil {
			return fmt.Errorf("handlepay: build distributor: %w", err)
		}
		e.distributor = dist
		feeReceiver = dist.Address()
	} else if n != 0 {
		return fmt.Errorf("handlepay: exactly two stakeholders required, got %d", n)
	}

	if !feeReceiver.IsZero() {
		vaultOpts = append(vaultOpts, vault.WithFeeReceiver(feeReceiver))
		dispatcherOpts = append(dispatcherOpts, handlepay.WithFeeReceiver(feeReceiver))
	}

	e.vault = vault.New(e.store, e.registry, e.mover, vaultOpts...)
	dispatcherOpts = append(dispatcherOpts, handlepay.WithEscrow(e.vault))
	e.dispatcher = handlepay.New(e.store, e.registry, e.mover, dispatcherOpts...)

	if e.distributor != nil {
		ropts := []distributor.Option{
			distributor.WithSource(e.dispatcher),
			distributor.WithSource(e.vault),
		}
		for _, opt := range ropts {
			opt(e.distributor)
		}
	}
	return nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("handlepay: configuration is required but not found in config files; " +
				"ensure 'extensions.handlepay' or 'handlepay' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("handlepay: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("fee_rate", e.config.FeeRate),
		forge.F("withdraw_fee_rate", e.config.WithdrawFeeRate),
		forge.F("stakeholders", len(e.config.Stakeholders)),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.handlepay" first (namespaced pattern).
	if cm.IsSet("extensions.handlepay") {
		if err := cm.Bind("extensions.handlepay", &cfg); err == nil {
			e.Logger().Debug("handlepay: loaded config from file",
				forge.F("key", "extensions.handlepay"),
			)
			return cfg, true
		}
		e.Logger().Warn("handlepay: failed to bind extensions.handlepay config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "handlepay" key.
	if cm.IsSet("handlepay") {
		if err := cm.Bind("handlepay", &cfg); err == nil {
			e.Logger().Debug("handlepay: loaded config from file",
				forge.F("key", "handlepay"),
			)
			return cfg, true
		}
		e.Logger().Warn("handlepay: failed to bind handlepay config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.FeeRate == 0 {
		cfg.FeeRate = defaults.FeeRate
	}
	if cfg.WithdrawFeeRate == 0 {
		cfg.WithdrawFeeRate = defaults.WithdrawFeeRate
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.FeeReceiver == "" && programmaticConfig.FeeReceiver != "" {
		yamlConfig.FeeReceiver = programmaticConfig.FeeReceiver
	}
	if yamlConfig.Admin == "" && programmaticConfig.Admin != "" {
		yamlConfig.Admin = programmaticConfig.Admin
	}
	if yamlConfig.DispatcherAddress == "" && programmaticConfig.DispatcherAddress != "" {
		yamlConfig.DispatcherAddress = programmaticConfig.DispatcherAddress
	}
	if yamlConfig.VaultAddress == "" && programmaticConfig.VaultAddress != "" {
		yamlConfig.VaultAddress = programmaticConfig.VaultAddress
	}

	// Numeric fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.FeeRate == 0 && programmaticConfig.FeeRate != 0 {
		yamlConfig.FeeRate = programmaticConfig.FeeRate
	}
	if yamlConfig.WithdrawFeeRate == 0 && programmaticConfig.WithdrawFeeRate != 0 {
		yamlConfig.WithdrawFeeRate = programmaticConfig.WithdrawFeeRate
	}
	if len(yamlConfig.Stakeholders) == 0 && len(programmaticConfig.Stakeholders) != 0 {
		yamlConfig.Stakeholders = programmaticConfig.Stakeholders
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
