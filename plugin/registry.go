package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onTransferCompleted  []OnTransferCompleted
	onEscrowed           []OnEscrowed
	onBatchTransferred   []OnBatchTransferred
	onDeposited          []OnDeposited
	onBatchDeposited     []OnBatchDeposited
	onWithdrawn          []OnWithdrawn
	onFeesClaimed        []OnFeesClaimed
	onShareClaimed       []OnShareClaimed
	onFeeRateChanged     []OnFeeRateChanged
	onFeeReceiverChanged []OnFeeReceiverChanged
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTransferCompleted); ok {
		r.onTransferCompleted = append(r.onTransferCompleted, v)
	}
	if v, ok := p.(OnEscrowed); ok {
		r.onEscrowed = append(r.onEscrowed, v)
	}
	if v, ok := p.(OnBatchTransferred); ok {
		r.onBatchTransferred = append(r.onBatchTransferred, v)
	}
	if v, ok := p.(OnDeposited); ok {
		r.onDeposited = append(r.onDeposited, v)
	}
	if v, ok := p.(OnBatchDeposited); ok {
		r.onBatchDeposited = append(r.onBatchDeposited, v)
	}
	if v, ok := p.(OnWithdrawn); ok {
		r.onWithdrawn = append(r.onWithdrawn, v)
	}
	if v, ok := p.(OnFeesClaimed); ok {
		r.onFeesClaimed = append(r.onFeesClaimed, v)
	}
	if v, ok := p.(OnShareClaimed); ok {
		r.onShareClaimed = append(r.onShareClaimed, v)
	}
	if v, ok := p.(OnFeeRateChanged); ok {
		r.onFeeRateChanged = append(r.onFeeRateChanged, v)
	}
	if v, ok := p.(OnFeeReceiverChanged); ok {
		r.onFeeReceiverChanged = append(r.onFeeReceiverChanged, v)
	}

	r.logger.Info("plugin registered", "name", p.Name())

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitTransferCompleted emits a direct transfer settlement event.
func (r *Registry) EmitTransferCompleted(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onTransferCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransferCompleted(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnTransferCompleted failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitEscrowed emits an escrow routing event.
func (r *Registry) EmitEscrowed(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onEscrowed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnEscrowed(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnEscrowed failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitBatchTransferred emits a batch settlement event.
func (r *Registry) EmitBatchTransferred(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onBatchTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBatchTransferred(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnBatchTransferred failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitDeposited emits a vault deposit event.
func (r *Registry) EmitDeposited(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onDeposited
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDeposited(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnDeposited failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitBatchDeposited emits a batch deposit event.
func (r *Registry) EmitBatchDeposited(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onBatchDeposited
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBatchDeposited(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnBatchDeposited failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitWithdrawn emits a vault withdrawal event.
func (r *Registry) EmitWithdrawn(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawn(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawn failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitFeesClaimed emits a fee pool claim event.
func (r *Registry) EmitFeesClaimed(ctx context.Context, pool, asset string, amount uint64, to string) {
	r.mu.RLock()
	plugins := r.onFeesClaimed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFeesClaimed(ctx, pool, asset, amount, to)
		}); err != nil {
			r.logger.Warn("plugin OnFeesClaimed failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitShareClaimed emits a stakeholder share claim event.
func (r *Registry) EmitShareClaimed(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onShareClaimed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShareClaimed(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnShareClaimed failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitFeeRateChanged emits a fee rate configuration change event.
func (r *Registry) EmitFeeRateChanged(ctx context.Context, component string, oldRate, newRate uint32) {
	r.mu.RLock()
	plugins := r.onFeeRateChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFeeRateChanged(ctx, component, oldRate, newRate)
		}); err != nil {
			r.logger.Warn("plugin OnFeeRateChanged failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitFeeReceiverChanged emits a fee receiver configuration change event.
func (r *Registry) EmitFeeReceiverChanged(ctx context.Context, component, oldReceiver, newReceiver string) {
	r.mu.RLock()
	plugins := r.onFeeReceiverChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFeeReceiverChanged(ctx, component, oldReceiver, newReceiver)
		}); err != nil {
			r.logger.Warn("plugin OnFeeReceiverChanged failed", "plugin", p.Name(), "error", err)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the settlement pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
