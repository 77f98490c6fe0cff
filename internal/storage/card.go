package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cardgrid/internal/domain"
)

// CardStore implements domain.CardStore using SQLite.
type CardStore struct {
	db *DB
}

func NewCardStore(db *DB) *CardStore {
	return &CardStore{db: db}
}

const cardColumns = `id, source, title, state_json, refresh, col, row, col_span, row_span,
	pixel_left, pixel_top, pixel_width, pixel_height, size_class, manual, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (domain.Card, error) {
	var c domain.Card
	p := &c.Placement
	err := row.Scan(&c.ID, &c.Source, &c.Title, &c.State, &c.Refresh,
		&p.Column, &p.Row, &p.ColumnSpan, &p.RowSpan,
		&p.PixelLeft, &p.PixelTop, &p.PixelWidth, &p.PixelHeight, &p.SizeClass, &p.Manual,
		&c.CreatedAt, &c.UpdatedAt)
	p.ID = c.ID
	return c, err
}

func (s *CardStore) CreateCard(c *domain.Card) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Placement.ID = c.ID
	p := c.Placement
	_, err := s.db.Conn().Exec(
		`INSERT INTO cards (`+cardColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Source, c.Title, c.State, c.Refresh,
		p.Column, p.Row, p.ColumnSpan, p.RowSpan,
		p.PixelLeft, p.PixelTop, p.PixelWidth, p.PixelHeight, p.SizeClass, p.Manual,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

func (s *CardStore) GetCard(id string) (*domain.Card, error) {
	c, err := scanCard(s.db.Conn().QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get card %s: %w", id, domain.ErrCardNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return &c, nil
}

// ListCards returns every card in creation order.
func (s *CardStore) ListCards() ([]domain.Card, error) {
	rows, err := s.db.Conn().Query(`SELECT ` + cardColumns + ` FROM cards ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// UpdateCard saves the content fields of a card. Placement is left alone.
func (s *CardStore) UpdateCard(c *domain.Card) error {
	c.UpdatedAt = time.Now()
	res, err := s.db.Conn().Exec(
		`UPDATE cards SET source = ?, title = ?, state_json = ?, refresh = ?, updated_at = ? WHERE id = ?`,
		c.Source, c.Title, c.State, c.Refresh, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return expectRow(res, "update card", c.ID)
}

// UpdatePlacement saves a card's geometry.
func (s *CardStore) UpdatePlacement(p domain.CardPlacement) error {
	res, err := s.db.Conn().Exec(
		`UPDATE cards SET col = ?, row = ?, col_span = ?, row_span = ?,
			pixel_left = ?, pixel_top = ?, pixel_width = ?, pixel_height = ?,
			size_class = ?, manual = ?, updated_at = ? WHERE id = ?`,
		p.Column, p.Row, p.ColumnSpan, p.RowSpan,
		p.PixelLeft, p.PixelTop, p.PixelWidth, p.PixelHeight,
		p.SizeClass, p.Manual, time.Now(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update placement: %w", err)
	}
	return expectRow(res, "update placement", p.ID)
}

// SavePlacements writes several placements in one transaction, e.g. after a
// layout pass.
func (s *CardStore) SavePlacements(ps []domain.CardPlacement) error {
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, p := range ps {
		_, err := tx.Exec(
			`UPDATE cards SET col = ?, row = ?, col_span = ?, row_span = ?,
				pixel_left = ?, pixel_top = ?, pixel_width = ?, pixel_height = ?,
				size_class = ?, manual = ?, updated_at = ? WHERE id = ?`,
			p.Column, p.Row, p.ColumnSpan, p.RowSpan,
			p.PixelLeft, p.PixelTop, p.PixelWidth, p.PixelHeight,
			p.SizeClass, p.Manual, now, p.ID,
		)
		if err != nil {
			return fmt.Errorf("save placement %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *CardStore) DeleteCard(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return nil
}

func expectRow(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, domain.ErrCardNotFound)
	}
	return nil
}
