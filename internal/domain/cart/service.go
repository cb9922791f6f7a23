package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/domain/product"
)

// Service owns cart-line lifecycle: add freezes catalog fields into the
// line, quantity update recomputes the line total, removal deletes it.
type Service struct {
	lines    Repository
	products product.Repository
}

// NewService creates a cart Service.
func NewService(lines Repository, products product.Repository) *Service {
	return &Service{lines: lines, products: products}
}

// AddRequest holds the input for adding a product to the cart.
type AddRequest struct {
	UserID    string
	ProductID string
	Quantity  int
	Color     string
	Size      string
}

// Add reads the product from the catalog and creates a cart line carrying a
// denormalized copy of its name, prices, image, brand and shipping fee.
func (s *Service) Add(ctx context.Context, req AddRequest) (*Line, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrap(err, "get product")
	}

	line := &Line{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		ProductID:   p.ID,
		Name:        p.Name,
		Price:       p.Price,
		OldPrice:    p.OldPrice,
		Image:       p.Image,
		Brand:       p.Brand,
		ShippingFee: p.ShippingFee,
		Quantity:    req.Quantity,
		Color:       req.Color,
		Size:        req.Size,
		TotalPrice:  p.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
	}
	if err := s.lines.Create(ctx, line); err != nil {
		return nil, errors.Wrap(err, "create cart line")
	}
	return line, nil
}

// UpdateQuantity changes a line's quantity and recomputes its total from
// the price captured at add time.
func (s *Service) UpdateQuantity(ctx context.Context, userID, lineID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}

	lines, err := s.lines.Selected(ctx, userID, []string{lineID})
	if err != nil {
		return errors.Wrap(err, "load cart line")
	}
	if len(lines) == 0 {
		return ErrNotFound
	}

	total := lines[0].Price.Mul(decimal.NewFromInt(int64(qty)))
	return s.lines.UpdateQuantity(ctx, userID, lineID, qty, total)
}

// List returns the user's current cart lines.
func (s *Service) List(ctx context.Context, userID string) ([]Line, error) {
	return s.lines.ListByUser(ctx, userID)
}

// Remove deletes one of the user's cart lines.
func (s *Service) Remove(ctx context.Context, userID, lineID string) error {
	return s.lines.Delete(ctx, userID, lineID)
}
