package inventory

import (
	"context"
	"sort"

	"github.com/aretw0/assetflow/internal/codec"
	"github.com/aretw0/assetflow/pkg/listview"
	"github.com/aretw0/assetflow/pkg/ports"
	"github.com/aretw0/assetflow/pkg/reconcile"
)

// Registry describes how one entity type is listed.
type Registry[T any] struct {
	Name   string
	Key    func(T) string
	Facets map[string]func(T) string
	Search []func(T) string
	// Actions builds the bulk actions over the registry's data client.
	Actions func(client ports.DataAPIClient[T]) map[string]ports.BulkActionFunc
}

// Fetch adapts the client's List to a fetch function.
func (r Registry[T]) Fetch(client ports.DataAPIClient[T]) ports.FetchFunc[T] {
	return client.List
}

// Config builds a list view configuration sharing coord's snapshot.
func (r Registry[T]) Config(client ports.DataAPIClient[T], coord *reconcile.Coordinator[T], pageSize int) listview.Config[T] {
	cfg := listview.Config[T]{
		Collection:   r.Name,
		Key:          r.Key,
		Facets:       r.Facets,
		SearchFields: r.Search,
		PageSize:     pageSize,
		Coordinator:  coord,
	}
	if coord == nil {
		cfg.Fetch = r.Fetch(client)
	}
	if r.Actions != nil {
		cfg.BulkActions = r.Actions(client)
	}
	return cfg
}

// FacetNames returns the registry's facet names in lexical order.
func (r Registry[T]) FacetNames() []string {
	names := make([]string, 0, len(r.Facets))
	for name := range r.Facets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func setStatus[T any](client ports.DataAPIClient[T], status string) ports.BulkActionFunc {
	return func(ctx context.Context, ids []string) error {
		return client.BulkUpdate(ctx, ids, map[string]any{"status": status})
	}
}

func remove[T any](client ports.DataAPIClient[T]) ports.BulkActionFunc {
	return client.BulkRemove
}

// Assets is the asset registry.
var Assets = Registry[Asset]{
	Name: "assets",
	Key:  func(a Asset) string { return a.ID },
	Facets: map[string]func(Asset) string{
		"status":   func(a Asset) string { return a.Status },
		"category": func(a Asset) string { return a.Category },
		"location": func(a Asset) string { return a.Location },
	},
	Search: []func(Asset) string{
		func(a Asset) string { return a.AssetTag },
		func(a Asset) string { return a.Name },
		func(a Asset) string { return a.SerialNumber },
		func(a Asset) string { return a.AssignedTo },
	},
	Actions: func(c ports.DataAPIClient[Asset]) map[string]ports.BulkActionFunc {
		return map[string]ports.BulkActionFunc{
			"retire":      setStatus(c, "retired"),
			"maintenance": setStatus(c, "maintenance"),
			"activate":    setStatus(c, "active"),
			"delete":      remove(c),
		}
	},
}

// Users is the user registry.
var Users = Registry[User]{
	Name: "users",
	Key:  func(u User) string { return u.ID },
	Facets: map[string]func(User) string{
		"role":       func(u User) string { return u.Role },
		"status":     func(u User) string { return u.Status },
		"department": func(u User) string { return u.Department },
	},
	Search: []func(User) string{
		func(u User) string { return u.Username },
		func(u User) string { return u.DisplayName },
		func(u User) string { return u.Email },
	},
	Actions: func(c ports.DataAPIClient[User]) map[string]ports.BulkActionFunc {
		return map[string]ports.BulkActionFunc{
			"activate":   setStatus(c, "active"),
			"deactivate": setStatus(c, "inactive"),
			"delete":     remove(c),
		}
	},
}

// Transactions is the movement registry.
var Transactions = Registry[Transaction]{
	Name: "transactions",
	Key:  func(t Transaction) string { return t.ID },
	Facets: map[string]func(Transaction) string{
		"type":   func(t Transaction) string { return t.Type },
		"status": func(t Transaction) string { return t.Status },
	},
	Search: []func(Transaction) string{
		func(t Transaction) string { return t.AssetID },
		func(t Transaction) string { return t.ToLocation },
		func(t Transaction) string { return t.ToUser },
		func(t Transaction) string { return t.Reason },
	},
	Actions: func(c ports.DataAPIClient[Transaction]) map[string]ports.BulkActionFunc {
		return map[string]ports.BulkActionFunc{
			"approve": setStatus(c, "approved"),
			"reject":  setStatus(c, "rejected"),
		}
	},
}

// AuditLogs is the read-only audit registry.
var AuditLogs = Registry[AuditLog]{
	Name: "audit_logs",
	Key:  func(l AuditLog) string { return l.ID },
	Facets: map[string]func(AuditLog) string{
		"severity": func(l AuditLog) string { return l.Severity },
		"action":   func(l AuditLog) string { return l.Action },
		"entity":   func(l AuditLog) string { return l.Entity },
	},
	Search: []func(AuditLog) string{
		func(l AuditLog) string { return l.Actor },
		func(l AuditLog) string { return l.EntityID },
		func(l AuditLog) string { return l.Details },
	},
}

// Documents is the document registry.
var Documents = Registry[Document]{
	Name: "documents",
	Key:  func(d Document) string { return d.ID },
	Facets: map[string]func(Document) string{
		"kind":   func(d Document) string { return d.Kind },
		"status": func(d Document) string { return d.Status },
	},
	Search: []func(Document) string{
		func(d Document) string { return d.Title },
		func(d Document) string { return d.AssetID },
		func(d Document) string { return d.Owner },
	},
	Actions: func(c ports.DataAPIClient[Document]) map[string]ports.BulkActionFunc {
		return map[string]ports.BulkActionFunc{
			"archive": setStatus(c, "archived"),
			"delete":  remove(c),
		}
	},
}

// Lookup resolves entities from a loaded snapshot, for derived wizard fields.
func Lookup[T any](snapshot *reconcile.Snapshot[T], key func(T) string) func(id string) (map[string]any, bool) {
	return func(id string) (map[string]any, bool) {
		for _, item := range snapshot.Items() {
			if key(item) != id {
				continue
			}
			m, err := codec.ToMap(item)
			if err != nil {
				return nil, false
			}
			return m, true
		}
		return nil, false
	}
}
