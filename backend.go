package assetflow

import (
	"sync"

	"github.com/aretw0/assetflow/pkg/adapters/api"
	"github.com/aretw0/assetflow/pkg/adapters/memory"
	"github.com/aretw0/assetflow/pkg/inventory"
	"github.com/aretw0/assetflow/pkg/ports"
)

// Backend holds one data client per collection of the asset-management API.
type Backend struct {
	Assets       ports.DataAPIClient[inventory.Asset]
	Users        ports.DataAPIClient[inventory.User]
	Transactions ports.DataAPIClient[inventory.Transaction]
	AuditLogs    ports.DataAPIClient[inventory.AuditLog]
	Documents    ports.DataAPIClient[inventory.Document]
	// Records serves workflow collections that have no registry, such as
	// purchase orders and maintenance plans.
	Records func(collection string) ports.DataAPIClient[map[string]any]
}

// MemoryBackend returns a backend seeded with demo data, kept in process.
func MemoryBackend() *Backend {
	var (
		mu      sync.Mutex
		records = make(map[string]*memory.Collection[map[string]any])
	)
	return &Backend{
		Assets:       memory.NewCollection("assets", inventory.Assets.Key, "", inventory.SampleAssets()...),
		Users:        memory.NewCollection("users", inventory.Users.Key, "", inventory.SampleUsers()...),
		Transactions: memory.NewCollection("transactions", inventory.Transactions.Key, "", inventory.SampleTransactions()...),
		AuditLogs:    memory.NewCollection("audit_logs", inventory.AuditLogs.Key, "", inventory.SampleAuditLogs()...),
		Documents:    memory.NewCollection("documents", inventory.Documents.Key, "", inventory.SampleDocuments()...),
		Records: func(collection string) ports.DataAPIClient[map[string]any] {
			mu.Lock()
			defer mu.Unlock()
			c, ok := records[collection]
			if !ok {
				c = memory.NewCollection(collection, recordID, "")
				records[collection] = c
			}
			return c
		},
	}
}

func recordID(m map[string]any) string {
	id, _ := m["id"].(string)
	return id
}

// APIBackend returns a backend talking to the REST API at baseURL.
func APIBackend(baseURL string, opts ...api.Option) *Backend {
	return &Backend{
		Assets:       api.New[inventory.Asset](baseURL, "assets", opts...),
		Users:        api.New[inventory.User](baseURL, "users", opts...),
		Transactions: api.New[inventory.Transaction](baseURL, "transactions", opts...),
		AuditLogs:    api.New[inventory.AuditLog](baseURL, "audit-logs", append(append([]api.Option(nil), opts...), api.WithCollectionKeys("audit_logs"))...),
		Documents:    api.New[inventory.Document](baseURL, "documents", opts...),
		Records: func(collection string) ports.DataAPIClient[map[string]any] {
			return api.New[map[string]any](baseURL, collection, opts...)
		},
	}
}
