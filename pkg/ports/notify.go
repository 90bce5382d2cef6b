package ports

import "github.com/aretw0/assetflow/pkg/domain"

// NotificationSink receives user-facing notifications.
// Notify must not block; the controllers never wait on it.
type NotificationSink interface {
	Notify(kind domain.NotificationKind, message string)
}
