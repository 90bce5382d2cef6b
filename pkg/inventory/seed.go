package inventory

import "fmt"

// SampleAssets returns demo assets for the in-memory backend.
func SampleAssets() []Asset {
	type row struct{ name, category, status, location, holder string }
	rows := []row{
		{"ThinkPad X1 Carbon", "hardware", "active", "HQ-2F", "jdoe"},
		{"Dell UltraSharp 27", "hardware", "active", "HQ-2F", "jdoe"},
		{"MacBook Pro 14", "hardware", "active", "HQ-3F", "asmith"},
		{"Adobe CC licence", "software", "active", "HQ-3F", "asmith"},
		{"Standing desk", "furniture", "active", "HQ-2F", ""},
		{"Ford Transit", "vehicle", "maintenance", "Depot", "mlopez"},
		{"Cisco Catalyst 9300", "hardware", "active", "DC-1", ""},
		{"HP LaserJet M404", "hardware", "retired", "Warehouse", ""},
		{"iPhone 15", "hardware", "lost", "HQ-3F", "kchan"},
		{"Office chair", "furniture", "active", "HQ-3F", ""},
		{"Jira licence", "software", "active", "HQ-2F", ""},
		{"Epson projector", "hardware", "maintenance", "Warehouse", ""},
	}
	out := make([]Asset, len(rows))
	for i, r := range rows {
		out[i] = Asset{
			ID:           fmt.Sprintf("ast-%03d", i+1),
			AssetTag:     fmt.Sprintf("AST-%d", 1001+i),
			Name:         r.name,
			Category:     r.category,
			Status:       r.status,
			Location:     r.location,
			AssignedTo:   r.holder,
			PurchaseDate: fmt.Sprintf("2025-%02d-15", i%12+1),
			PurchaseCost: float64(150 * (i + 1)),
		}
	}
	return out
}

// SampleUsers returns demo users.
func SampleUsers() []User {
	return []User{
		{ID: "usr-001", Username: "jdoe", DisplayName: "John Doe", Email: "jdoe@example.com", Role: "admin", Department: "IT", Status: "active"},
		{ID: "usr-002", Username: "asmith", DisplayName: "Alice Smith", Email: "asmith@example.com", Role: "manager", Department: "Design", Status: "active"},
		{ID: "usr-003", Username: "mlopez", DisplayName: "Maria Lopez", Email: "mlopez@example.com", Role: "technician", Department: "Facilities", Status: "active"},
		{ID: "usr-004", Username: "kchan", DisplayName: "Kevin Chan", Email: "kchan@example.com", Role: "viewer", Department: "Sales", Status: "inactive"},
	}
}

// SampleTransactions returns demo asset movements.
func SampleTransactions() []Transaction {
	return []Transaction{
		{ID: "trx-001", Type: "checkout", AssetID: "ast-001", ToUser: "jdoe", ToLocation: "HQ-2F", Date: "2025-02-01", Status: "approved"},
		{ID: "trx-002", Type: "transfer", AssetID: "ast-006", FromLocation: "HQ-2F", ToLocation: "Depot", Date: "2025-06-10", Reason: "Fleet pool", Status: "pending"},
		{ID: "trx-003", Type: "return", AssetID: "ast-008", FromUser: "asmith", ToLocation: "Warehouse", Date: "2025-09-03", Status: "approved"},
	}
}

// SampleAuditLogs returns demo audit entries.
func SampleAuditLogs() []AuditLog {
	return []AuditLog{
		{ID: "aud-001", Timestamp: "2025-09-03T10:00:00Z", Actor: "jdoe", Action: "update", Entity: "assets", EntityID: "ast-008", Severity: "info", Details: "status retired"},
		{ID: "aud-002", Timestamp: "2025-09-04T08:12:00Z", Actor: "system", Action: "login_failed", Entity: "users", EntityID: "usr-004", Severity: "warning"},
		{ID: "aud-003", Timestamp: "2025-09-05T16:40:00Z", Actor: "asmith", Action: "delete", Entity: "documents", EntityID: "doc-009", Severity: "critical"},
	}
}

// SampleDocuments returns demo documents.
func SampleDocuments() []Document {
	return []Document{
		{ID: "doc-001", Title: "ThinkPad invoice", Kind: "invoice", AssetID: "ast-001", Uploaded: "2025-01-16", Owner: "jdoe", Status: "active"},
		{ID: "doc-002", Title: "Transit service manual", Kind: "manual", AssetID: "ast-006", Uploaded: "2025-06-11", Owner: "mlopez", Status: "active"},
		{ID: "doc-003", Title: "Catalyst warranty", Kind: "warranty", AssetID: "ast-007", Uploaded: "2025-07-01", Owner: "jdoe", Status: "archived"},
	}
}
