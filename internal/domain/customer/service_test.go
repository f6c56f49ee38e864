package customer

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
	byID      map[int64]*Customer
	created   *Customer
	updated   *Customer
	deletedID int64
	createErr error
	deleteErr error
}

func (m *mockRepo) Create(_ context.Context, c *Customer) error {
	if m.createErr != nil {
		return m.createErr
	}
	c.ID = 1
	m.created = c
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Customer, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, c *Customer) error {
	m.updated = c
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedID = id
	return nil
}

func (m *mockRepo) List(_ context.Context, _ ListParams) ([]Customer, int64, error) {
	return nil, 0, nil
}

func (m *mockRepo) SearchByName(_ context.Context, _ string, _, _ int) ([]Customer, int64, error) {
	return nil, 0, nil
}

func (m *mockRepo) TopBySpent(_ context.Context, _ int) ([]Customer, error) {
	return nil, nil
}

func newTestService(repo *mockRepo) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

// --- Tests ---

func TestCreate_DefaultsToActive(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	c, err := svc.Create(context.Background(), CreateRequest{
		Name:  "Acme Corporation",
		Email: "purchasing@acme.example",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusActive, c.Status)
	assert.True(t, c.TotalSpent.IsZero())
	assert.Zero(t, c.TotalOrders)
	assert.Equal(t, int64(1), c.ID)
}

func TestCreate_NameRequired(t *testing.T) {
	svc := newTestService(&mockRepo{})

	_, err := svc.Create(context.Background(), CreateRequest{
		Name:  "   ",
		Email: "a@example.com",
	})
	require.ErrorIs(t, err, ErrNameRequired)
}

func TestCreate_InvalidEmail(t *testing.T) {
	svc := newTestService(&mockRepo{})

	for _, email := range []string{"", "not-an-email", "a@"} {
		_, err := svc.Create(context.Background(), CreateRequest{
			Name:  "Acme",
			Email: email,
		})
		require.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
	}
}

func TestCreate_EmailTaken(t *testing.T) {
	repo := &mockRepo{createErr: ErrEmailTaken}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateRequest{
		Name:  "Acme",
		Email: "dup@example.com",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdate_PreservesAggregates(t *testing.T) {
	repo := &mockRepo{
		byID: map[int64]*Customer{
			1: {
				ID:          1,
				Name:        "Acme",
				Email:       "old@acme.example",
				Status:      StatusActive,
				TotalSpent:  decimal.NewFromInt(500),
				TotalOrders: 3,
			},
		},
	}
	svc := newTestService(repo)

	c, err := svc.Update(context.Background(), 1, CreateRequest{
		Name:   "Acme Corp",
		Email:  "new@acme.example",
		Status: StatusInactive,
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", c.Name)
	assert.Equal(t, "new@acme.example", c.Email)
	assert.Equal(t, StatusInactive, c.Status)
	assert.Equal(t, "500", c.TotalSpent.String())
	assert.Equal(t, 3, c.TotalOrders)
	require.NotNil(t, repo.updated)
}

func TestUpdate_KeepsStatusWhenOmitted(t *testing.T) {
	repo := &mockRepo{
		byID: map[int64]*Customer{
			1: {ID: 1, Name: "Acme", Email: "a@acme.example", Status: StatusBlocked},
		},
	}
	svc := newTestService(repo)

	c, err := svc.Update(context.Background(), 1, CreateRequest{
		Name:  "Acme",
		Email: "a@acme.example",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, c.Status)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(&mockRepo{})

	_, err := svc.Update(context.Background(), 404, CreateRequest{
		Name:  "Acme",
		Email: "a@acme.example",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_Referenced(t *testing.T) {
	repo := &mockRepo{deleteErr: ErrReferenced}
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), 1)
	require.ErrorIs(t, err, ErrReferenced)
}
