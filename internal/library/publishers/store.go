package publishers

import (
	"context"
	"database/sql"
	"errors"
)

type PublisherStore interface {
	Search(ctx context.Context, keyword string) ([]Publisher, error)
	ListActive(ctx context.Context) ([]Publisher, error)
	GetActive(ctx context.Context, id int64) (*Publisher, error)
	Insert(ctx context.Context, p *Publisher) error
	UpdateName(ctx context.Context, id int64, name string) (int64, error)
	SoftDelete(ctx context.Context, id int64) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) PublisherStore { return &Store{db: db} }

func (s *Store) Search(ctx context.Context, keyword string) ([]Publisher, error) {
	const q = `
	SELECT publisher_id, name, is_deleted
	FROM publisher
	WHERE is_deleted = 0 AND name LIKE CONCAT('%', ?, '%')
	ORDER BY name`
	rows, err := s.db.QueryContext(ctx, q, keyword)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPublishers(rows)
}

func (s *Store) ListActive(ctx context.Context) ([]Publisher, error) {
	const q = `SELECT publisher_id, name, is_deleted FROM publisher WHERE is_deleted = 0 ORDER BY name`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPublishers(rows)
}

func (s *Store) GetActive(ctx context.Context, id int64) (*Publisher, error) {
	const q = `SELECT publisher_id, name, is_deleted FROM publisher WHERE publisher_id = ? AND is_deleted = 0`
	var p Publisher
	var isDeletedInt int
	err := s.db.QueryRowContext(ctx, q, id).Scan(&p.PublisherID, &p.Name, &isDeletedInt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.IsDeleted = isDeletedInt != 0
	return &p, nil
}

func (s *Store) Insert(ctx context.Context, p *Publisher) error {
	const q = `INSERT INTO publisher (name, is_deleted) VALUES (?, 0)`
	res, err := s.db.ExecContext(ctx, q, p.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.PublisherID = id
	return nil
}

func (s *Store) UpdateName(ctx context.Context, id int64, name string) (int64, error) {
	const q = `UPDATE publisher SET name = ? WHERE publisher_id = ? AND is_deleted = 0`
	res, err := s.db.ExecContext(ctx, q, name, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) SoftDelete(ctx context.Context, id int64) (int64, error) {
	const q = `UPDATE publisher SET is_deleted = 1 WHERE publisher_id = ? AND is_deleted = 0`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanPublishers(rows *sql.Rows) ([]Publisher, error) {
	var out []Publisher
	for rows.Next() {
		var p Publisher
		var isDeletedInt int
		if err := rows.Scan(&p.PublisherID, &p.Name, &isDeletedInt); err != nil {
			return nil, err
		}
		p.IsDeleted = isDeletedInt != 0
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
