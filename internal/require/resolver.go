// Package require implements the Require Resolver (C6): the protocol for
// loading Lua modules by URI, with a pluggable host fetch function, a
// process-wide cache for remote sources, and a per-VM nested-require
// stack for mediawiki:// relative resolution. See spec.md §4.6.
package require

import (
	"strings"

	"github.com/pubwiki/luavm/internal/rdferr"
)

// FetchFunc is the host-supplied synchronous fetch the resolver calls for
// http(s):// and mediawiki:// specifiers. The core only defines this
// contract; how the host obtains bytes (an HTTP client, a MediaWiki API
// call) is out of scope (spec.md §1, §9).
type FetchFunc func(spec string) (string, error)

// Resolved is what Resolve hands back to the VM for one require() call.
type Resolved struct {
	Source string
	// MediaWikiBase is the base string to push onto the per-VM require
	// Stack before executing Source, and pop after. Empty for non-mediawiki
	// specifiers, which do not use the stack at all.
	MediaWikiBase string
	// Specifier is the fully-resolved, absolute form of whatever spec was
	// passed to Resolve: the raw spec itself for every scheme except a
	// relative "Module:X", which resolves against the Stack's current base
	// into "mediawiki://<base>/Module:X". Callers must cache loaded module
	// values by Specifier, not by the raw spec — otherwise the same
	// relative "Module:X" resolved under two different mediawiki bases
	// collides on one cache entry.
	Specifier string
}

// Resolver ties a file:// registry, a remote-module cache, and a fetch
// function together behind the URI scheme dispatch spec.md §4.6 mandates.
type Resolver struct {
	registry *Registry
	cache    *Cache
	fetch    FetchFunc
}

// NewResolver constructs a Resolver. fetch may be nil, in which case
// http(s):// and mediawiki:// specifiers always fail with ModuleLoadError
// (no host fetch capability configured).
func NewResolver(registry *Registry, cache *Cache, fetch FetchFunc) *Resolver {
	if registry == nil {
		registry = NewRegistry()
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Resolver{registry: registry, cache: cache, fetch: fetch}
}

// ClearCache empties the remote-module cache.
func (r *Resolver) ClearCache() {
	r.cache.Clear()
}

// Resolve dispatches spec to the scheme-appropriate loader. stack is
// consulted only for a bare "Module:NAME" relative specifier, which is
// only valid while a mediawiki module is mid-load (i.e. the stack is
// non-empty).
func (r *Resolver) Resolve(spec string, stack *Stack) (Resolved, error) {
	switch {
	case strings.HasPrefix(spec, "resource://"):
		return Resolved{}, rdferr.New(rdferr.KindModuleLoadError, "resource:// is a term-typing marker, not valid for require: %s", spec)

	case strings.HasPrefix(spec, "file://"):
		name := strings.TrimPrefix(spec, "file://")
		src, ok := r.registry.Get(name)
		if !ok {
			return Resolved{}, rdferr.New(rdferr.KindModuleLoadError, "file module not registered: %s", name)
		}
		return Resolved{Source: src, Specifier: spec}, nil

	case strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		scheme := "http"
		if strings.HasPrefix(spec, "https://") {
			scheme = "https"
		}
		return r.resolveFetched(spec, scheme, "")

	case strings.HasPrefix(spec, "mediawiki://"):
		host, _, err := parseMediaWiki(spec)
		if err != nil {
			return Resolved{}, err
		}
		return r.resolveFetched(spec, "mediawiki", host)

	case strings.HasPrefix(spec, "Module:"):
		base, ok := stack.Top()
		if !ok {
			return Resolved{}, rdferr.New(rdferr.KindModuleLoadError,
				"relative module specifier %q has no enclosing mediawiki:// base on the require stack", spec)
		}
		absolute := "mediawiki://" + base + "/" + spec
		return r.resolveFetched(absolute, "mediawiki", base)

	default:
		return Resolved{}, rdferr.New(rdferr.KindModuleLoadError, "unsupported require scheme: %s", spec)
	}
}

// resolveFetched handles the shared cache-then-fetch path for http(s)://
// and mediawiki:// specifiers. cacheKey is the absolute specifier (also
// returned as Resolved.Specifier); mediaWikiBase is "" for plain http(s).
func (r *Resolver) resolveFetched(cacheKey, scheme, mediaWikiBase string) (Resolved, error) {
	if src, ok := r.cache.Get(cacheKey); ok {
		return Resolved{Source: src, MediaWikiBase: mediaWikiBase, Specifier: cacheKey}, nil
	}
	if r.fetch == nil {
		err := rdferr.New(rdferr.KindModuleLoadError, "no fetch function configured for %s", cacheKey)
		r.cache.PutError(cacheKey, scheme, err.Error())
		return Resolved{}, err
	}
	src, err := r.fetch(cacheKey)
	if err != nil {
		wrapped := rdferr.Wrap(rdferr.KindModuleLoadError, err, "fetch %s", cacheKey)
		r.cache.PutError(cacheKey, scheme, wrapped.Error())
		return Resolved{}, wrapped
	}
	r.cache.Put(cacheKey, scheme, src)
	return Resolved{Source: src, MediaWikiBase: mediaWikiBase, Specifier: cacheKey}, nil
}

// parseMediaWiki splits "mediawiki://HOST/Module:NAME" into its host and
// module-path components.
func parseMediaWiki(spec string) (host, modulePath string, err error) {
	rest := strings.TrimPrefix(spec, "mediawiki://")
	idx := strings.IndexByte(rest, '/')
	if idx < 0 || idx == 0 || idx == len(rest)-1 {
		return "", "", rdferr.New(rdferr.KindModuleLoadError, "malformed mediawiki specifier: %s", spec)
	}
	return rest[:idx], rest[idx+1:], nil
}
