package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// DefaultTimeout bounds how long a single hook may run.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onScheduleCreated      []OnScheduleCreated
	onTokensReleased       []OnTokensReleased
	onReleaseFailed        []OnReleaseFailed
	onInvariantViolation   []OnInvariantViolation
	onEmergencyWithdraw    []OnEmergencyWithdraw
	onOwnershipTransferred []OnOwnershipTransferred
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
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
	if v, ok := p.(OnScheduleCreated); ok {
		r.onScheduleCreated = append(r.onScheduleCreated, v)
	}
	if v, ok := p.(OnTokensReleased); ok {
		r.onTokensReleased = append(r.onTokensReleased, v)
	}
	if v, ok := p.(OnReleaseFailed); ok {
		r.onReleaseFailed = append(r.onReleaseFailed, v)
	}
	if v, ok := p.(OnInvariantViolation); ok {
		r.onInvariantViolation = append(r.onInvariantViolation, v)
	}
	if v, ok := p.(OnEmergencyWithdraw); ok {
		r.onEmergencyWithdraw = append(r.onEmergencyWithdraw, v)
	}
	if v, ok := p.(OnOwnershipTransferred); ok {
		r.onOwnershipTransferred = append(r.onOwnershipTransferred, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", ImplementedHooks(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnScheduleCreated", reflect.TypeOf((*OnScheduleCreated)(nil)).Elem()},
	{"OnTokensReleased", reflect.TypeOf((*OnTokensReleased)(nil)).Elem()},
	{"OnReleaseFailed", reflect.TypeOf((*OnReleaseFailed)(nil)).Elem()},
	{"OnInvariantViolation", reflect.TypeOf((*OnInvariantViolation)(nil)).Elem()},
	{"OnEmergencyWithdraw", reflect.TypeOf((*OnEmergencyWithdraw)(nil)).Elem()},
	{"OnOwnershipTransferred", reflect.TypeOf((*OnOwnershipTransferred)(nil)).Elem()},
}

// ImplementedHooks returns the names of the hook interfaces p implements.
func ImplementedHooks(p Plugin) []string {
	var hooks []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			hooks = append(hooks, h.name)
		}
	}
	return hooks
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
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error {
			return p.OnInit(ctx, ledger)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitScheduleCreated emits a schedule created event.
func (r *Registry) EmitScheduleCreated(ctx context.Context, s *schedule.Schedule) {
	r.mu.RLock()
	plugins := r.onScheduleCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnScheduleCreated", p.Name(), func() error {
			return p.OnScheduleCreated(ctx, s.Clone())
		})
	}
}

// EmitTokensReleased emits a tokens released event.
func (r *Registry) EmitTokensReleased(ctx context.Context, s *schedule.Schedule, amount types.Amount) {
	r.mu.RLock()
	plugins := r.onTokensReleased
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnTokensReleased", p.Name(), func() error {
			return p.OnTokensReleased(ctx, s.Clone(), amount)
		})
	}
}

// EmitReleaseFailed emits a release failed event.
func (r *Registry) EmitReleaseFailed(ctx context.Context, s *schedule.Schedule, amount types.Amount, cause error) {
	r.mu.RLock()
	plugins := r.onReleaseFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnReleaseFailed", p.Name(), func() error {
			return p.OnReleaseFailed(ctx, s.Clone(), amount, cause)
		})
	}
}

// EmitInvariantViolation emits an invariant violation event.
func (r *Registry) EmitInvariantViolation(ctx context.Context, s *schedule.Schedule, vested types.Amount) {
	r.mu.RLock()
	plugins := r.onInvariantViolation
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInvariantViolation", p.Name(), func() error {
			return p.OnInvariantViolation(ctx, s.Clone(), vested)
		})
	}
}

// EmitEmergencyWithdraw emits an emergency withdraw event.
func (r *Registry) EmitEmergencyWithdraw(ctx context.Context, owner, token string, amount types.Amount) {
	r.mu.RLock()
	plugins := r.onEmergencyWithdraw
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnEmergencyWithdraw", p.Name(), func() error {
			return p.OnEmergencyWithdraw(ctx, owner, token, amount)
		})
	}
}

// EmitOwnershipTransferred emits an ownership transferred event.
func (r *Registry) EmitOwnershipTransferred(ctx context.Context, previous, next string) {
	r.mu.RLock()
	plugins := r.onOwnershipTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnOwnershipTransferred", p.Name(), func() error {
			return p.OnOwnershipTransferred(ctx, previous, next)
		})
	}
}

func (r *Registry) dispatch(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
