package clients

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/kindo-app/doorbell/models"
)

// MockStoreClient is an in-memory StoreClient. With doBad every call fails.
type MockStoreClient struct {
	mu              sync.Mutex
	doBad           bool
	reconciliations map[string]*models.Reconciliation
}

func NewMockStoreClient(doBad bool) *MockStoreClient {
	return &MockStoreClient{doBad: doBad, reconciliations: map[string]*models.Reconciliation{}}
}

func (d *MockStoreClient) Ping(ctx context.Context) error {
	if d.doBad {
		return errors.New("Session failure")
	}
	return nil
}

func (d *MockStoreClient) InsertReconciliation(ctx context.Context, reconciliation *models.Reconciliation) error {
	if d.doBad {
		return errors.New("InsertReconciliation failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.reconciliations[reconciliation.ID]; ok {
		return errors.New("duplicate key")
	}
	copied := *reconciliation
	d.reconciliations[reconciliation.ID] = &copied
	return nil
}

func (d *MockStoreClient) UpsertReconciliation(ctx context.Context, reconciliation *models.Reconciliation) error {
	if d.doBad {
		return errors.New("UpsertReconciliation failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *reconciliation
	d.reconciliations[reconciliation.ID] = &copied
	return nil
}

func (d *MockStoreClient) FindReconciliation(ctx context.Context, id string) (*models.Reconciliation, error) {
	if d.doBad {
		return nil, errors.New("FindReconciliation failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	found, ok := d.reconciliations[id]
	if !ok {
		return nil, nil
	}
	copied := *found
	return &copied, nil
}

func (d *MockStoreClient) FindReconciliations(ctx context.Context, statuses ...models.ReconciliationStatus) ([]*models.Reconciliation, error) {
	if d.doBad {
		return nil, errors.New("FindReconciliations failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	results := []*models.Reconciliation{}
	for _, rec := range d.reconciliations {
		if len(statuses) > 0 && !containsStatus(statuses, rec.Status) {
			continue
		}
		copied := *rec
		results = append(results, &copied)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Created.Before(results[j].Created) })
	return results, nil
}

func containsStatus(statuses []models.ReconciliationStatus, status models.ReconciliationStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
