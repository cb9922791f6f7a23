package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmart/storefront/internal/domain/product"
)

type mockLineRepo struct {
	created   *Line
	byUser    map[string][]Line
	updatedID string
	updatedQ  int
	updatedT  decimal.Decimal
}

func (m *mockLineRepo) Create(_ context.Context, line *Line) error {
	m.created = line
	return nil
}

func (m *mockLineRepo) ListByUser(_ context.Context, userID string) ([]Line, error) {
	return m.byUser[userID], nil
}

func (m *mockLineRepo) Selected(_ context.Context, userID string, ids []string) ([]Line, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Line
	for _, l := range m.byUser[userID] {
		if want[l.ID] {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockLineRepo) UpdateQuantity(_ context.Context, _, lineID string, qty int, total decimal.Decimal) error {
	m.updatedID = lineID
	m.updatedQ = qty
	m.updatedT = total
	return nil
}

func (m *mockLineRepo) Delete(_ context.Context, _, _ string) error { return nil }

type mockProductRepo struct {
	byID map[string]*product.Product
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) IncrementSold(_ context.Context, _ string, _ int) error { return nil }

func TestService_Add_FreezesCatalogFields(t *testing.T) {
	products := &mockProductRepo{byID: map[string]*product.Product{
		"p1": {
			ID:          "p1",
			Name:        "Canvas Sneaker",
			Price:       decimal.RequireFromString("49.99"),
			OldPrice:    decimal.RequireFromString("59.99"),
			Image:       "sneaker.jpg",
			Brand:       "Stride",
			ShippingFee: decimal.NewFromInt(5),
		},
	}}
	lines := &mockLineRepo{}
	svc := NewService(lines, products)

	line, err := svc.Add(context.Background(), AddRequest{
		UserID: "u1", ProductID: "p1", Quantity: 2, Color: "white", Size: "42",
	})

	require.NoError(t, err)
	require.NotNil(t, lines.created)
	assert.Equal(t, "Canvas Sneaker", line.Name)
	assert.Equal(t, "Stride", line.Brand)
	assert.Equal(t, "white", line.Color)
	assert.True(t, decimal.RequireFromString("99.98").Equal(line.TotalPrice))
	assert.NotEmpty(t, line.ID)
}

func TestService_Add_InvalidQuantity(t *testing.T) {
	svc := NewService(&mockLineRepo{}, &mockProductRepo{})

	_, err := svc.Add(context.Background(), AddRequest{UserID: "u1", ProductID: "p1", Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestService_Add_ProductNotFound(t *testing.T) {
	svc := NewService(&mockLineRepo{}, &mockProductRepo{byID: map[string]*product.Product{}})

	_, err := svc.Add(context.Background(), AddRequest{UserID: "u1", ProductID: "ghost", Quantity: 1})
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestService_UpdateQuantity_RecomputesFromFrozenPrice(t *testing.T) {
	lines := &mockLineRepo{byUser: map[string][]Line{
		"u1": {{ID: "l1", UserID: "u1", Price: decimal.NewFromInt(300), Quantity: 1}},
	}}
	svc := NewService(lines, &mockProductRepo{})

	err := svc.UpdateQuantity(context.Background(), "u1", "l1", 3)

	require.NoError(t, err)
	assert.Equal(t, 3, lines.updatedQ)
	assert.True(t, decimal.NewFromInt(900).Equal(lines.updatedT))
}

func TestService_UpdateQuantity_OtherUsersLineInvisible(t *testing.T) {
	lines := &mockLineRepo{byUser: map[string][]Line{
		"u1": {{ID: "l1", UserID: "u1", Price: decimal.NewFromInt(300), Quantity: 1}},
	}}
	svc := NewService(lines, &mockProductRepo{})

	err := svc.UpdateQuantity(context.Background(), "u2", "l1", 3)
	require.ErrorIs(t, err, ErrNotFound)
}
