package product

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementation ---

type mockRepo struct {
	byID      map[int64]*Product
	created   *Product
	updated   *Product
	createErr error
	deleteErr error
}

func (m *mockRepo) Create(_ context.Context, p *Product) error {
	if m.createErr != nil {
		return m.createErr
	}
	p.ID = 1
	m.created = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, p *Product) error {
	m.updated = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, _ int64) error {
	return m.deleteErr
}

func (m *mockRepo) List(_ context.Context, _ ListParams) ([]Product, int64, error) {
	return nil, 0, nil
}

func (m *mockRepo) SearchByName(_ context.Context, _ string, _, _ int) ([]Product, int64, error) {
	return nil, 0, nil
}

func (m *mockRepo) ByCategory(_ context.Context, _ string, _, _ int) ([]Product, int64, error) {
	return nil, 0, nil
}

func (m *mockRepo) Categories(_ context.Context) ([]string, error) {
	return nil, nil
}

func newTestService(repo *mockRepo) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func intPtr(v int) *int { return &v }

// --- Tests ---

func TestCreate_NewProductIsActive(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	p, err := svc.Create(context.Background(), CreateRequest{
		SKU:           "DESK-0001",
		Name:          "Standing Desk",
		Price:         decimal.RequireFromString("499.00"),
		StockQuantity: intPtr(25),
	})
	require.NoError(t, err)

	assert.True(t, p.IsActive)
	assert.True(t, p.Managed())
	assert.Equal(t, int64(1), p.ID)
}

func TestCreate_NilStockIsUnmanaged(t *testing.T) {
	svc := newTestService(&mockRepo{})

	p, err := svc.Create(context.Background(), CreateRequest{
		SKU:   "SVC-0001",
		Name:  "Installation Service",
		Price: decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	assert.Nil(t, p.StockQuantity)
	assert.False(t, p.Managed())
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(&mockRepo{})

	_, err := svc.Create(context.Background(), CreateRequest{
		SKU:   "X-1",
		Price: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Create(context.Background(), CreateRequest{
		Name:  "Widget",
		Price: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, ErrSKURequired)

	_, err = svc.Create(context.Background(), CreateRequest{
		SKU:   "X-1",
		Name:  "Widget",
		Price: decimal.NewFromInt(-1),
	})
	require.ErrorIs(t, err, ErrNegativePrice)
}

func TestCreate_SKUTaken(t *testing.T) {
	repo := &mockRepo{createErr: ErrSKUTaken}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateRequest{
		SKU:   "DUP-1",
		Name:  "Widget",
		Price: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, ErrSKUTaken)
}

func TestUpdate_ReplacesFields(t *testing.T) {
	repo := &mockRepo{
		byID: map[int64]*Product{
			1: {
				ID:       1,
				SKU:      "DESK-0001",
				Name:     "Standing Desk",
				Price:    decimal.RequireFromString("499.00"),
				IsActive: true,
			},
		},
	}
	svc := newTestService(repo)

	p, err := svc.Update(context.Background(), 1, CreateRequest{
		SKU:           "DESK-0001",
		Name:          "Standing Desk v2",
		Price:         decimal.RequireFromString("549.00"),
		StockQuantity: intPtr(10),
	})
	require.NoError(t, err)

	assert.Equal(t, "Standing Desk v2", p.Name)
	assert.Equal(t, "549", p.Price.String())
	assert.True(t, p.IsActive)
	require.NotNil(t, repo.updated)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(&mockRepo{})

	_, err := svc.Update(context.Background(), 404, CreateRequest{
		SKU:   "X-1",
		Name:  "Widget",
		Price: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_Referenced(t *testing.T) {
	repo := &mockRepo{deleteErr: ErrReferenced}
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), 1)
	require.ErrorIs(t, err, ErrReferenced)
}
