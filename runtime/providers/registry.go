package providers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/logger"
	metrics "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/metrics/prometheus"
)

// Registry holds the constructed providers and the process-wide default selection.
// Callers pass an explicit Selection per call; the zero Selection resolves to a
// snapshot of the default taken when the call starts.
type Registry struct {
	mu        sync.RWMutex
	providers map[Kind]Provider
	def       Selection
}

// NewRegistry creates a registry whose default is def.
func NewRegistry(def Selection) *Registry {
	return &Registry{
		providers: make(map[Kind]Provider),
		def:       def,
	}
}

// Register adds a provider under kind, replacing any previous one.
func (r *Registry) Register(kind Kind, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[kind] = provider
}

// Get retrieves a provider by kind.
func (r *Registry) Get(kind Kind) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[kind]
	return p, ok
}

// List returns the registered kinds in sorted order.
func (r *Registry) List() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.providers))
	for k := range r.providers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Default returns the current default selection.
func (r *Registry) Default() Selection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// SetDefault changes the default selection. The kind must be registered.
func (r *Registry) SetDefault(sel Selection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[sel.Kind]; !ok {
		return pkgerrors.Validation("providers", "SetDefault", "provider %q is not registered", sel.Kind)
	}
	r.def = sel
	return nil
}

// Resolve returns the provider for sel and the effective selection.
// A zero sel uses the default; a sel with only a Model uses the default kind.
func (r *Registry) Resolve(sel Selection) (Provider, Selection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	eff := sel
	if eff.Kind == "" {
		eff.Kind = r.def.Kind
		if eff.Model == "" {
			eff.Model = r.def.Model
		}
	}
	p, ok := r.providers[eff.Kind]
	if !ok {
		return nil, eff, pkgerrors.Validation("providers", "Resolve", "provider %q is not registered", eff.Kind)
	}
	return p, eff, nil
}

// Generate resolves sel and runs req on that provider with logging and metrics.
// The selection's model fills req.Model when the request does not set one.
func (r *Registry) Generate(ctx context.Context, sel Selection, req GenerateRequest) (string, error) {
	p, eff, err := r.Resolve(sel)
	if err != nil {
		return "", err
	}
	if req.Model == "" {
		req.Model = eff.Model
	}

	ctx = logger.WithProvider(ctx, string(eff.Kind))
	if req.Model != "" {
		ctx = logger.WithModel(ctx, req.Model)
	}
	op := string(req.Operation)
	logger.LLMCall(ctx, string(eff.Kind), op, float64(req.Temperature), "max_tokens", req.MaxTokens)

	start := time.Now()
	out, err := p.Generate(ctx, req)
	elapsed := time.Since(start)
	metrics.RecordProviderRequest(string(eff.Kind), op, metrics.StatusFor(err), elapsed.Seconds())
	if err != nil {
		logger.LLMError(ctx, string(eff.Kind), op, err)
		return "", err
	}
	logger.LLMResponse(ctx, string(eff.Kind), op, len(out), elapsed.Milliseconds())
	return out, nil
}

// ProviderStatus describes one registered provider.
type ProviderStatus struct {
	Kind      Kind     `json:"provider"`
	Available bool     `json:"available"`
	Models    []string `json:"models,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Status summarizes the registry for display.
type Status struct {
	Default   Selection        `json:"default"`
	Providers []ProviderStatus `json:"providers"`
}

// Status reports the default selection and the availability of every provider.
// Providers implementing ModelLister also report their installed models.
func (r *Registry) Status(ctx context.Context) Status {
	st := Status{Default: r.Default()}
	for _, kind := range r.List() {
		p, _ := r.Get(kind)
		ps := ProviderStatus{Kind: kind, Available: p.Available(ctx)}
		if lister, ok := p.(ModelLister); ok && ps.Available {
			models, err := lister.ListModels(ctx)
			if err != nil {
				ps.Error = err.Error()
			} else {
				ps.Models = models
			}
		}
		st.Providers = append(st.Providers, ps)
	}
	return st
}

// Close closes all registered providers.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
