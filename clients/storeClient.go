package clients

import (
	"context"

	"github.com/kindo-app/doorbell/models"
)

// StoreClient keeps reconciliation records for operators
type StoreClient interface {
	Ping(ctx context.Context) error
	InsertReconciliation(ctx context.Context, reconciliation *models.Reconciliation) error
	UpsertReconciliation(ctx context.Context, reconciliation *models.Reconciliation) error
	FindReconciliation(ctx context.Context, id string) (*models.Reconciliation, error)
	FindReconciliations(ctx context.Context, statuses ...models.ReconciliationStatus) ([]*models.Reconciliation, error)
}
