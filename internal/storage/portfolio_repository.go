package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"portfolioTracker/internal/valuation"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateTicker = errors.New("ticker already in portfolio")
)

// Portfolio is a named collection of line items.
type Portfolio struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
}

// Item is one (ticker, quantity) line of a portfolio.
type Item struct {
	ID          int64     `json:"id"`
	PortfolioID int64     `json:"portfolio_id"`
	Ticker      string    `json:"ticker"`
	Quantity    int64     `json:"quantity"`
	Created     time.Time `json:"created"`
}

// PortfolioRepository handles portfolio and item database operations.
type PortfolioRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewPortfolioRepository(db *sql.DB, log zerolog.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

func (r *PortfolioRepository) CreatePortfolio(title string) (Portfolio, error) {
	now := time.Now()
	res, err := r.db.Exec(`INSERT INTO portfolios(title, created) VALUES(?, ?)`, title, now.Unix())
	if err != nil {
		return Portfolio{}, fmt.Errorf("create portfolio: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Portfolio{}, fmt.Errorf("create portfolio: %w", err)
	}
	return Portfolio{ID: id, Title: title, Created: now}, nil
}

func (r *PortfolioRepository) ListPortfolios() ([]Portfolio, error) {
	rows, err := r.db.Query(`SELECT id, title, created FROM portfolios ORDER BY created ASC`)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer rows.Close()

	var out []Portfolio
	for rows.Next() {
		var p Portfolio
		var created int64
		if err := rows.Scan(&p.ID, &p.Title, &created); err != nil {
			return nil, fmt.Errorf("scan portfolio: %w", err)
		}
		p.Created = time.Unix(created, 0)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PortfolioRepository) GetPortfolio(id int64) (Portfolio, error) {
	var p Portfolio
	var created int64
	err := r.db.QueryRow(`SELECT id, title, created FROM portfolios WHERE id = ?`, id).
		Scan(&p.ID, &p.Title, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Portfolio{}, ErrNotFound
	}
	if err != nil {
		return Portfolio{}, fmt.Errorf("get portfolio: %w", err)
	}
	p.Created = time.Unix(created, 0)
	return p, nil
}

func (r *PortfolioRepository) RenamePortfolio(id int64, title string) error {
	res, err := r.db.Exec(`UPDATE portfolios SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("rename portfolio: %w", err)
	}
	return requireAffected(res)
}

func (r *PortfolioRepository) DeletePortfolio(id int64) error {
	// ON DELETE CASCADE requires foreign keys enabled on the connection; the
	// explicit delete keeps the repository correct either way.
	if _, err := r.db.Exec(`DELETE FROM items WHERE portfolio_id = ?`, id); err != nil {
		return fmt.Errorf("delete portfolio items: %w", err)
	}
	res, err := r.db.Exec(`DELETE FROM portfolios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete portfolio: %w", err)
	}
	return requireAffected(res)
}

func (r *PortfolioRepository) AddItem(portfolioID int64, ticker string, quantity int64) (Item, error) {
	var exists int
	err := r.db.QueryRow(`SELECT COUNT(1) FROM items WHERE portfolio_id = ? AND ticker = ?`,
		portfolioID, ticker).Scan(&exists)
	if err != nil {
		return Item{}, fmt.Errorf("check item: %w", err)
	}
	if exists > 0 {
		return Item{}, ErrDuplicateTicker
	}

	now := time.Now()
	res, err := r.db.Exec(`INSERT INTO items(portfolio_id, ticker, quantity, created) VALUES(?, ?, ?, ?)`,
		portfolioID, ticker, quantity, now.Unix())
	if err != nil {
		return Item{}, fmt.Errorf("add item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Item{}, fmt.Errorf("add item: %w", err)
	}
	return Item{ID: id, PortfolioID: portfolioID, Ticker: ticker, Quantity: quantity, Created: now}, nil
}

func (r *PortfolioRepository) UpdateItem(id, quantity int64) error {
	res, err := r.db.Exec(`UPDATE items SET quantity = ? WHERE id = ?`, quantity, id)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return requireAffected(res)
}

func (r *PortfolioRepository) DeleteItem(id int64) error {
	res, err := r.db.Exec(`DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return requireAffected(res)
}

func (r *PortfolioRepository) ListItems(portfolioID int64) ([]Item, error) {
	rows, err := r.db.Query(`SELECT id, portfolio_id, ticker, quantity, created FROM items
		WHERE portfolio_id = ? ORDER BY ticker ASC`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		var created int64
		if err := rows.Scan(&it.ID, &it.PortfolioID, &it.Ticker, &it.Quantity, &created); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Created = time.Unix(created, 0)
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetHoldings returns the ordered, read-only holding snapshot for a portfolio.
func (r *PortfolioRepository) GetHoldings(portfolioID int64) (valuation.Holdings, error) {
	items, err := r.ListItems(portfolioID)
	if err != nil {
		return nil, err
	}
	holdings := make(valuation.Holdings, 0, len(items))
	for _, it := range items {
		holdings = append(holdings, valuation.Holding{Ticker: it.Ticker, Quantity: it.Quantity})
	}
	return holdings, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
