// Package registry maintains the model mapping table: the translation from
// client-facing model names to upstream NIM model identifiers. The table is
// read-only during request handling; configuration reloads swap the whole
// table atomically between requests.
package registry

import (
	"sync"
	"time"

	"github.com/nimroute/nim-proxy/internal/config"
)

// OwnedBy is the owner tag reported for every model in listings.
const OwnedBy = "nvidia-nim-proxy"

// ModelRegistry holds the alias-to-upstream-model table and the default
// fallback model. A lookup miss never fails; it resolves to the default.
type ModelRegistry struct {
	mu           sync.RWMutex
	defaultModel string
	mappings     map[string]string
	aliases      []string
	created      int64
}

// NewModelRegistry builds a registry from the configured mapping list.
func NewModelRegistry(cfg *config.Config) *ModelRegistry {
	r := &ModelRegistry{created: time.Now().Unix()}
	r.Update(cfg)
	return r
}

// Update replaces the mapping table and default model from the given
// configuration. The swap happens under the write lock, so concurrent
// requests observe either the old table or the new one, never a mix.
func (r *ModelRegistry) Update(cfg *config.Config) {
	mappings := make(map[string]string, len(cfg.Models))
	aliases := make([]string, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		if _, exists := mappings[m.Alias]; !exists {
			aliases = append(aliases, m.Alias)
		}
		mappings[m.Alias] = m.Name
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultModel = cfg.DefaultModel
	r.mappings = mappings
	r.aliases = aliases
}

// Resolve translates a client-facing model name into the upstream NIM model
// identifier. Unknown names fall back to the default model; an unknown model
// is never an error.
func (r *ModelRegistry) Resolve(requestedModel string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.mappings[requestedModel]; ok {
		return name
	}
	return r.defaultModel
}

// Models returns OpenAI-compatible model metadata for every alias in the
// table, in configuration order.
func (r *ModelRegistry) Models() []map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	models := make([]map[string]any, 0, len(r.aliases))
	for _, alias := range r.aliases {
		models = append(models, map[string]any{
			"id":       alias,
			"object":   "model",
			"created":  r.created,
			"owned_by": OwnedBy,
		})
	}
	return models
}
