// Package registry maps capability labels onto the tabular services that
// implement them, so ingestion pipelines can address an entity by name
// without compile-time knowledge of its package.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/papita/transactions/internal/domain/shared"
	"github.com/papita/transactions/internal/domain/shared/tabular"
	"github.com/papita/transactions/internal/infrastructure/persistence"
)

// TabularService is the capability surface every registered entity service
// exposes to ingestion pipelines.
type TabularService interface {
	Label() string
	UpsertTable(ctx context.Context, table *tabular.Table, policy persistence.ConflictPolicy) (shared.UpsertReport, error)
	FetchTable(ctx context.Context, f shared.Filter) (*tabular.Table, error)
}

// Registry holds the label to service mapping.
type Registry struct {
	mu       sync.RWMutex
	services map[string]TabularService
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{services: make(map[string]TabularService)}
}

// Register adds a service under its label. Duplicate labels are an error,
// registration is explicit rather than silently last-one-wins.
func (r *Registry) Register(svc TabularService) error {
	label := svc.Label()
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("service label is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.services[label]; exists {
		return fmt.Errorf("label %q already registered", label)
	}
	r.services[label] = svc
	return nil
}

// Lookup resolves a label to its service. An exact match wins; otherwise the
// label is normalized (lowercased, separators collapsed to underscores) and
// retried, so "Asset Accounts" and "asset-accounts" find "asset_accounts".
func (r *Registry) Lookup(label string) (TabularService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if svc, ok := r.services[label]; ok {
		return svc, nil
	}
	normalized := Normalize(label)
	if svc, ok := r.services[normalized]; ok {
		return svc, nil
	}
	return nil, shared.NewDomainError("UNKNOWN_LABEL",
		fmt.Sprintf("no service registered for label %q", label))
}

// Labels returns the registered labels in sorted order.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	labels := make([]string, 0, len(r.services))
	for label := range r.services {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Normalize maps a loosely written label onto registry form: lowercase, runs
// of non-alphanumeric characters collapsed into single underscores.
func Normalize(label string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
