package options

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdef/pkg/fields"
	"github.com/goliatone/go-formdef/pkg/schema"
)

// Registry maps provider names to ListMethods. Bind looks providers up by
// field key first, then by endpoint URL, and finally builds a Remote
// provider for fields that declare an endpoint.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]schema.ListMethod
	opts      Options
}

// NewRegistry creates an empty registry. The options configure Remote
// providers created while binding.
func NewRegistry(fns ...OptionFn) *Registry {
	return &Registry{
		providers: make(map[string]schema.ListMethod),
		opts:      NewOptions(fns...),
	}
}

// Register associates a provider with name. Names are a field key or an
// endpoint URL.
func (r *Registry) Register(name string, provider schema.ListMethod) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("options: provider name is required")
	}
	if provider == nil {
		return fmt.Errorf("options: provider %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("options: provider %q already registered", name)
	}
	r.providers[name] = provider
	return nil
}

// MustRegister panics when Register fails.
func (r *Registry) MustRegister(name string, provider schema.ListMethod) {
	if err := r.Register(name, provider); err != nil {
		panic(err)
	}
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) (schema.ListMethod, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[name]
	return provider, ok
}

// Bind attaches providers to async fields that lack a ListMethod, walking
// nested array sub fields. It returns how many fields were bound. Fields
// with no matching provider are left alone, as are relative endpoints when
// no base URL is configured.
func (r *Registry) Bind(list []*fields.FieldDef) (int, error) {
	bound := 0
	for _, field := range list {
		n, err := r.bindField(field)
		if err != nil {
			return bound, err
		}
		bound += n
	}
	return bound, nil
}

func (r *Registry) bindField(field *fields.FieldDef) (int, error) {
	if field == nil {
		return 0, nil
	}
	bound := 0
	if source := field.OptionsObject; source.IsAsync() && source.ListMethod == nil {
		provider, err := r.resolve(field.Key, source.Endpoint)
		if err != nil {
			return 0, fmt.Errorf("options: bind %q: %w", field.Key, err)
		}
		if provider != nil {
			source.SetListMethod(provider)
			bound++
			r.opts.Logger.Debug("options provider bound", zap.String("key", field.Key))
		}
	}

	if field.Array == nil {
		return bound, nil
	}
	n, err := r.Bind(field.Array.SubFields)
	if err != nil {
		return bound, err
	}
	bound += n

	types := make([]string, 0, len(field.Array.TypedSubFields))
	for typ := range field.Array.TypedSubFields {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		n, err := r.Bind(field.Array.TypedSubFields[typ])
		if err != nil {
			return bound, err
		}
		bound += n
	}
	return bound, nil
}

func (r *Registry) resolve(key string, endpoint *schema.Endpoint) (schema.ListMethod, error) {
	if provider, ok := r.lookup(key); ok {
		return provider, nil
	}
	if endpoint == nil || endpoint.URL == "" {
		return nil, nil
	}
	if provider, ok := r.lookup(endpoint.URL); ok {
		return provider, nil
	}
	if r.opts.BaseURL == "" && !isAbsolute(endpoint.URL) {
		r.opts.Logger.Debug("relative endpoint left unbound", zap.String("key", key), zap.String("url", endpoint.URL))
		return nil, nil
	}
	opts := r.opts
	return Remote(*endpoint, func(o *Options) { *o = opts })
}

func isAbsolute(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && u.IsAbs()
}
