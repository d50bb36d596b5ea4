// Package catalog exposes the datasets a phone number is authorized to
// query. Authorization rows are produced by the account administration
// surface and consumed read-only here.
package catalog

import "context"

// AvailableDataset is one (phone number, dataset) authorization with the
// display metadata needed for menu rendering and selection.
type AvailableDataset struct {
	// AuthorizedNumberID identifies the authorization row.
	AuthorizedNumberID string

	// Phone is the authorized phone number.
	Phone string

	// UserName is the display name of the authorized user, when known.
	UserName string

	// ConnectionID and ConnectionName identify the backend connection.
	ConnectionID   string
	ConnectionName string

	// DatasetID and DatasetName identify the dataset.
	DatasetID   string
	DatasetName string

	// ReportID and ReportName identify the associated report context, when
	// one exists.
	ReportID   string
	ReportName string

	// OptionNumber is the 1-based position used for menu rendering and
	// selection-by-number.
	OptionNumber int
}

// Lister enumerates the datasets a phone number may query.
type Lister interface {
	// ListForPhone returns authorizations for the phone, ordered by
	// OptionNumber. An empty slice means no access.
	ListForPhone(ctx context.Context, phone string) ([]AvailableDataset, error)
}
