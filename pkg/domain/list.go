package domain

// ListQuery is the search/filter/pagination state of a registry.
type ListQuery struct {
	Search   string              `json:"search,omitempty"`
	Filters  map[string][]string `json:"filters,omitempty"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// DefaultPageSize is used when a registry is configured without a page size.
const DefaultPageSize = 10

// Page is one page of a collection as returned by a fetch.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// SelectionState summarizes a selection relative to the filtered set.
// It drives tri-state "select all" controls.
type SelectionState string

const (
	SelectionNone SelectionState = "none"
	SelectionSome SelectionState = "some"
	SelectionAll  SelectionState = "all"
)

// NotificationKind classifies user-facing notifications.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyInfo    NotificationKind = "info"
)
