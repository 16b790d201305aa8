// Package collector defines the capability contract every data-source
// adapter implements, plus the registry the orchestrator discovers
// adapters through.
package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/httpx"
	"github.com/moltpulse/moltpulse/internal/model"
)

// Depth selects the collection-effort level.
type Depth string

const (
	DepthQuick   Depth = "quick"
	DepthDefault Depth = "default"
	DepthDeep    Depth = "deep"
)

// DepthConfig is the item cap and timeout for one depth level.
type DepthConfig struct {
	MaxItems int
	Timeout  time.Duration
}

var depthConfigs = map[Depth]DepthConfig{
	DepthQuick:   {MaxItems: 10, Timeout: 30 * time.Second},
	DepthDefault: {MaxItems: 25, Timeout: 60 * time.Second},
	DepthDeep:    {MaxItems: 50, Timeout: 120 * time.Second},
}

// ConfigForDepth resolves a depth level; unknown values fall back to
// the default level.
func ConfigForDepth(d Depth) DepthConfig {
	if cfg, ok := depthConfigs[d]; ok {
		return cfg
	}
	return depthConfigs[DepthDefault]
}

// Result is the immutable bundle a collector returns. An error does
// not imply empty items: partial success is legal and expected.
type Result struct {
	Items   []model.Item
	Sources []model.Source
	Err     string
}

// Success reports whether collection completed without error.
func (r *Result) Success() bool { return r.Err == "" }

// Count returns the number of collected items.
func (r *Result) Count() int { return len(r.Items) }

// Fail builds an empty failed result.
func Fail(format string, args ...any) *Result {
	return &Result{Items: nil, Sources: nil, Err: fmt.Sprintf(format, args...)}
}

// Collector is the contract the orchestrator depends on. Implementations
// must not panic across this boundary; the orchestrator additionally
// contains panics as a safety net. Outbound calls should go through
// httpx so they self-record into the context trace.
type Collector interface {
	// Type returns the stable category tag.
	Type() model.Category

	// Name returns the human-readable adapter name.
	Name() string

	// RequiredKeys lists the API keys this adapter needs. With
	// RequiresAnyKey, any one of them suffices; otherwise all are
	// required. Empty means no credentials needed.
	RequiredKeys() []string
	RequiresAnyKey() bool

	// IsAvailable reports whether the adapter can run with the given
	// configuration.
	IsAvailable(cfg *model.Config) bool

	// Collect fetches items for the profile and date range. The context
	// carries the collector's trace and the orchestrator-enforced
	// deadline.
	Collect(ctx context.Context, profile *domain.Profile, fromDate, toDate string, depth Depth) *Result
}

// MissingKeys returns the subset of required keys absent from cfg.
func MissingKeys(cfg *model.Config, required []string) []string {
	var missing []string
	for _, k := range required {
		if cfg.Key(k) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

// KeysSatisfied applies the required/any-of rule.
func KeysSatisfied(cfg *model.Config, required []string, anyOf bool) bool {
	if len(required) == 0 {
		return true
	}
	missing := MissingKeys(cfg, required)
	if anyOf {
		return len(missing) < len(required)
	}
	return len(missing) == 0
}

// Factory constructs a collector from runtime configuration and the
// shared HTTP client.
type Factory func(cfg *model.Config, client *httpx.Client) Collector

// Registry maps categories to collector factories. Factories are
// registered at startup; duplicate registration is a configuration
// error, never a silent overwrite.
type Registry struct {
	factories map[model.Category]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[model.Category]Factory)}
}

// Register binds a category to its factory.
func (r *Registry) Register(cat model.Category, f Factory) error {
	if _, exists := r.factories[cat]; exists {
		return fmt.Errorf("collector category %q already registered", cat)
	}
	r.factories[cat] = f
	return nil
}

// Resolve looks up the factory for a category.
func (r *Registry) Resolve(cat model.Category) (Factory, bool) {
	f, ok := r.factories[cat]
	return f, ok
}

// Categories lists the registered categories, sorted.
func (r *Registry) Categories() []model.Category {
	cats := make([]model.Category, 0, len(r.factories))
	for c := range r.factories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// DefaultRegistry returns a registry with every built-in collector.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	// Built-ins cannot collide.
	_ = r.Register(model.CategoryFinancial, func(cfg *model.Config, client *httpx.Client) Collector {
		return NewAlphaVantage(cfg, client)
	})
	_ = r.Register(model.CategoryNews, func(cfg *model.Config, client *httpx.Client) Collector {
		return NewNewsAPI(cfg, client)
	})
	_ = r.Register(model.CategorySocial, func(cfg *model.Config, client *httpx.Client) Collector {
		return NewXSearch(cfg, client)
	})
	_ = r.Register(model.CategoryRSS, func(cfg *model.Config, client *httpx.Client) Collector {
		return NewRSS(cfg, client)
	})
	_ = r.Register(model.CategoryAwards, func(cfg *model.Config, client *httpx.Client) Collector {
		return NewAwards(cfg, client)
	})
	_ = r.Register(model.CategoryPEActivity, func(cfg *model.Config, client *httpx.Client) Collector {
		return NewPEActivity(cfg, client)
	})
	return r
}
