package testutil

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-analytics/internal/model"
	"github.com/ndewijer/portfolio-analytics/internal/repository"
)

// ClientBuilder provides a fluent interface for creating test clients.
//
// Example usage:
//
//	client := testutil.NewClient().WithOwner(advisorID).Build(t, db)
type ClientBuilder struct {
	ID      string
	Name    string
	OwnerID string
}

// NewClient creates a ClientBuilder with a random owner.
func NewClient() *ClientBuilder {
	return &ClientBuilder{
		ID:      MakeID(),
		Name:    MakeName("Test Client"),
		OwnerID: MakeID(),
	}
}

// WithOwner sets the owning advisor.
func (b *ClientBuilder) WithOwner(ownerID string) *ClientBuilder {
	b.OwnerID = ownerID
	return b
}

// Build creates the client in the database and returns it.
func (b *ClientBuilder) Build(t *testing.T, db *sqlx.DB) model.Client {
	t.Helper()

	_, err := db.Exec(`INSERT INTO client (id, name, owner_id) VALUES (?, ?, ?)`, b.ID, b.Name, b.OwnerID)
	if err != nil {
		t.Fatalf("Failed to create test client: %v", err)
	}

	return model.Client{ID: b.ID, Name: b.Name, OwnerID: b.OwnerID}
}

// PortfolioBuilder provides a fluent interface for creating test portfolios.
// Unless a client is given, Build creates one owned by OwnerID.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio with holdings
//	portfolio := testutil.NewPortfolio().
//	    WithName("Growth").
//	    WithOwner(advisorID).
//	    WithPosition("AAPL", 10, 100).
//	    Build(t, db)
type PortfolioBuilder struct {
	ID        string
	Name      string
	ClientID  string
	OwnerID   string
	Positions []model.Position
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:      MakeID(),
		Name:    MakeName("Test Portfolio"),
		OwnerID: MakeID(),
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// WithOwner sets the owner of the client created for this portfolio.
func (b *PortfolioBuilder) WithOwner(ownerID string) *PortfolioBuilder {
	b.OwnerID = ownerID
	return b
}

// ForClient attaches the portfolio to an existing client.
func (b *PortfolioBuilder) ForClient(client model.Client) *PortfolioBuilder {
	b.ClientID = client.ID
	b.OwnerID = client.OwnerID
	return b
}

// WithPosition adds a holding of quantity shares bought at purchasePrice.
func (b *PortfolioBuilder) WithPosition(ticker string, quantity, purchasePrice float64) *PortfolioBuilder {
	b.Positions = append(b.Positions, model.Position{
		ID:            MakeID(),
		PortfolioID:   b.ID,
		Ticker:        ticker,
		Quantity:      decimal.NewFromFloat(quantity),
		PurchasePrice: decimal.NewFromFloat(purchasePrice),
	})
	return b
}

// Build creates the portfolio, its client if needed, and its positions.
func (b *PortfolioBuilder) Build(t *testing.T, db *sqlx.DB) model.Portfolio {
	t.Helper()

	if b.ClientID == "" {
		b.ClientID = NewClient().WithOwner(b.OwnerID).Build(t, db).ID
	}

	_, err := db.Exec(`INSERT INTO portfolio (id, name, client_id) VALUES (?, ?, ?)`, b.ID, b.Name, b.ClientID)
	if err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}

	for _, p := range b.Positions {
		_, err := db.Exec(
			`INSERT INTO position (id, portfolio_id, ticker, quantity, purchase_price) VALUES (?, ?, ?, ?, ?)`,
			p.ID, b.ID, p.Ticker, p.Quantity.String(), p.PurchasePrice.String(),
		)
		if err != nil {
			t.Fatalf("Failed to create test position: %v", err)
		}
	}

	return model.Portfolio{ID: b.ID, Name: b.Name, ClientID: b.ClientID, OwnerID: b.OwnerID}
}

// CreatePortfolio creates a portfolio with the given name and default values.
//
// Example usage:
//
//	portfolio := testutil.CreatePortfolio(t, db, "My Portfolio")
func CreatePortfolio(t *testing.T, db *sqlx.DB, name string) model.Portfolio {
	t.Helper()
	return NewPortfolio().WithName(name).Build(t, db)
}

// CreateSnapshot stores a snapshot of portfolioID with the given value at timestamp.
func CreateSnapshot(t *testing.T, db *sqlx.DB, portfolioID string, value float64, timestamp time.Time) model.PortfolioSnapshot {
	t.Helper()

	snapshot := model.PortfolioSnapshot{
		ID:          MakeID(),
		PortfolioID: portfolioID,
		Value:       decimal.NewFromFloat(value),
		Timestamp:   timestamp.UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO portfolio_snapshot (id, portfolio_id, value, timestamp) VALUES (?, ?, ?, ?)`,
		snapshot.ID, snapshot.PortfolioID, snapshot.Value.String(), repository.FormatTimestamp(snapshot.Timestamp),
	)
	if err != nil {
		t.Fatalf("Failed to create test snapshot: %v", err)
	}

	return snapshot
}
