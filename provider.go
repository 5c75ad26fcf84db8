package video_fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrDuplicateProvider = errors.New("duplicate provider name")
	ErrInvalidProvider   = errors.New("invalid provider")
	ErrNoMatch           = errors.New("no provider matched the input")
	ErrUnknownProvider   = errors.New("unknown provider")
)

// A Provider is a named Rule as registered with a Registry.
type Provider struct {
	Name string
	Rule Rule
}

// A Match is the result of a Provider claiming a URL. Resolution carries any page already fetched while probing.
type Match struct {
	ProviderName string
	Rule         Rule
	Resolution   *Resolution
}

// A Registry is an ordered collection of Provider instances which can be used to try to match URLs. Providers are
// tried in the order they were added, and the first to claim a URL wins.
type Registry struct {
	providers   []*Provider
	providerMap map[string]*Provider
}

// Add registers a Provider with the Registry. Provider.Name and Provider.Rule must be set, and Provider.Name must be
// unique within the Registry.
func (r *Registry) Add(p Provider) error {
	if r.providerMap == nil {
		r.providerMap = make(map[string]*Provider)
	}
	if p.Name == "" || p.Rule == nil {
		return ErrInvalidProvider
	}
	if _, ok := r.providerMap[p.Name]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateProvider, p.Name)
	}
	r.providerMap[p.Name] = &p
	r.providers = append(r.providers, r.providerMap[p.Name])
	return nil
}

// MustAdd wraps Add but panics if there is an error.
func (r *Registry) MustAdd(p Provider) {
	if err := r.Add(p); err != nil {
		panic(err)
	}
}

// Get returns the named Provider.
func (r *Registry) Get(name string) (Provider, error) {
	if p, ok := r.providerMap[name]; ok {
		return *p, nil
	}
	return Provider{}, fmt.Errorf("%w: %v", ErrUnknownProvider, name)
}

// List returns the names of registered providers in match order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name)
	}
	return names
}

// Providers returns the registered providers in match order.
func (r *Registry) Providers() []Provider {
	providers := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, *p)
	}
	return providers
}

// Match tries each Provider in order, giving each a fresh Resolution from newResolution. The first Provider that
// claims the URL and is accepted by accept wins. If nothing matches, the returned error wraps ErrNoMatch along with
// the reason each Provider failed, if it gave one.
func (r *Registry) Match(ctx context.Context, newResolution func() *Resolution, accept func(*Match) bool) (*Match, error) {
	var result error
	for _, p := range r.providers {
		match, err := matchProvider(ctx, p, newResolution())
		if err != nil {
			result = multierror.Append(result, multierror.Prefix(err, fmt.Sprintf("[%v]", p.Name)))
			continue
		}
		if match == nil {
			continue
		}
		if accept != nil && !accept(match) {
			continue
		}
		return match, nil
	}
	if result != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMatch, result)
	}
	return nil, ErrNoMatch
}

// MatchWith will attempt to match against a specific provider.
func (r *Registry) MatchWith(ctx context.Context, name string, res *Resolution) (*Match, error) {
	p, ok := r.providerMap[name]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownProvider, name)
	}
	match, err := matchProvider(ctx, p, res)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMatch, err)
	} else if match == nil {
		return nil, ErrNoMatch
	}
	return match, nil
}

func matchProvider(ctx context.Context, p *Provider, res *Resolution) (*Match, error) {
	ok, err := p.Rule.CanHandleURL(ctx, res)
	if err != nil || !ok {
		return nil, err
	}
	return &Match{
		ProviderName: p.Name,
		Rule:         p.Rule,
		Resolution:   res,
	}, nil
}
