package ports

import (
	"context"

	"github.com/aretw0/assetflow/pkg/domain"
)

// InstanceStore keeps wizard snapshots between the requests of a session.
// Entries live as long as the wizard is open; they are not business records.
type InstanceStore interface {
	// Save stores the snapshot for a given session ID.
	Save(ctx context.Context, sessionID string, instance *domain.WorkflowInstance) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.WorkflowInstance, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the open sessions.
	List(ctx context.Context) ([]string, error)
}
