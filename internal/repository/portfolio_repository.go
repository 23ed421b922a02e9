package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ndewijer/portfolio-analytics/internal/apperrors"
	"github.com/ndewijer/portfolio-analytics/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio, client and position tables.
// Owner information is resolved through client.owner_id.
type PortfolioRepository struct {
	db *sqlx.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sqlx.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// ownerClause appends an owner restriction for the given filter to query.
// A nil OwnerIDs slice adds nothing; an empty non-nil slice matches no rows.
func ownerClause(query string, args []any, filter model.PortfolioFilter) (string, []any, error) {
	if filter.OwnerIDs == nil {
		return query, args, nil
	}
	if len(filter.OwnerIDs) == 0 {
		return query + " AND 1=0", args, nil
	}
	inQuery, inArgs, err := sqlx.In(" AND c.owner_id IN (?)", filter.OwnerIDs)
	if err != nil {
		return "", nil, fmt.Errorf("failed to expand owner filter: %w", err)
	}
	return query + inQuery, append(args, inArgs...), nil
}

// GetPortfolios retrieves portfolios from the database based on filter criteria.
// Returns an empty slice if no portfolios match the filter criteria.
func (s *PortfolioRepository) GetPortfolios(ctx context.Context, filter model.PortfolioFilter) ([]model.Portfolio, error) {
	query := `
          SELECT p.id, p.name, p.client_id, c.owner_id
          FROM portfolio p
          JOIN client c ON c.id = p.client_id
          WHERE 1=1
      `
	query, args, err := ownerClause(query, nil, filter)
	if err != nil {
		return nil, err
	}
	query += " ORDER BY p.name, p.id"

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}

	for rows.Next() {
		var p model.Portfolio

		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.ClientID,
			&p.OwnerID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio table results: %w", err)
		}

		portfolios = append(portfolios, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return portfolios, nil
}

// GetPortfolioOnID retrieves a single portfolio with its resolved owner.
// Returns apperrors.ErrPortfolioNotFound when no portfolio has the given ID.
func (s *PortfolioRepository) GetPortfolioOnID(ctx context.Context, portfolioID string) (model.Portfolio, error) {
	query := `
          SELECT p.id, p.name, p.client_id, c.owner_id
          FROM portfolio p
          JOIN client c ON c.id = p.client_id
          WHERE p.id = ?
      `
	var p model.Portfolio

	err := s.db.QueryRowContext(ctx, s.db.Rebind(query), portfolioID).Scan(
		&p.ID,
		&p.Name,
		&p.ClientID,
		&p.OwnerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to query portfolio: %w", err)
	}

	return p, nil
}

// GetPositions retrieves every position held by a portfolio, ordered by ticker.
// Returns an empty slice when the portfolio holds nothing.
func (s *PortfolioRepository) GetPositions(ctx context.Context, portfolioID string) ([]model.Position, error) {
	query := `
          SELECT id, portfolio_id, ticker, quantity, purchase_price
          FROM position
          WHERE portfolio_id = ?
          ORDER BY ticker, id
      `

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query position table: %w", err)
	}
	defer rows.Close()

	positions := []model.Position{}

	for rows.Next() {
		var p model.Position
		var quantityStr, purchaseStr string

		if err := rows.Scan(&p.ID, &p.PortfolioID, &p.Ticker, &quantityStr, &purchaseStr); err != nil {
			return nil, fmt.Errorf("failed to scan position table results: %w", err)
		}

		if p.Quantity, err = parseDecimal("quantity", quantityStr); err != nil {
			return nil, err
		}
		if p.PurchasePrice, err = parseDecimal("purchase_price", purchaseStr); err != nil {
			return nil, err
		}

		positions = append(positions, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position table: %w", err)
	}

	return positions, nil
}
