// Package inventory declares the console's registries: the entity types
// served by the data API and how each registry is searched, filtered and
// bulk-edited.
package inventory

// Asset is a tracked piece of equipment.
type Asset struct {
	ID             string  `json:"id"`
	AssetTag       string  `json:"asset_tag"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Status         string  `json:"status"`
	Location       string  `json:"location"`
	AssignedTo     string  `json:"assigned_to,omitempty"`
	SerialNumber   string  `json:"serial_number,omitempty"`
	Vendor         string  `json:"vendor,omitempty"`
	PurchaseDate   string  `json:"purchase_date,omitempty"`
	PurchaseCost   float64 `json:"purchase_cost,omitempty"`
	WarrantyExpiry string  `json:"warranty_expiry,omitempty"`
}

// User is a console account.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Department  string `json:"department,omitempty"`
	Status      string `json:"status"`
}

// Transaction records an asset movement (checkout, return, transfer).
type Transaction struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	AssetID      string `json:"asset_id"`
	FromLocation string `json:"from_location,omitempty"`
	ToLocation   string `json:"to_location,omitempty"`
	FromUser     string `json:"from_user,omitempty"`
	ToUser       string `json:"to_user,omitempty"`
	Date         string `json:"transfer_date"`
	Reason       string `json:"reason,omitempty"`
	Status       string `json:"status,omitempty"`
}

// AuditLog is an immutable audit trail entry.
type AuditLog struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Entity    string `json:"entity"`
	EntityID  string `json:"entity_id"`
	Severity  string `json:"severity"`
	Details   string `json:"details,omitempty"`
}

// Document is a file attached to assets (invoices, manuals, warranties).
type Document struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	AssetID  string `json:"asset_id,omitempty"`
	Uploaded string `json:"uploaded_at"`
	Owner    string `json:"owner,omitempty"`
	Status   string `json:"status"`
}
