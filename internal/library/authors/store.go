package authors

import (
	"context"
	"database/sql"
	"errors"
)

type AuthorStore interface {
	Search(ctx context.Context, keyword string) ([]Author, error)
	ListActive(ctx context.Context) ([]Author, error)
	GetActive(ctx context.Context, id int64) (*Author, error)
	Insert(ctx context.Context, a *Author) error
	UpdateName(ctx context.Context, id int64, name string) (int64, error)
	SoftDelete(ctx context.Context, id int64) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) AuthorStore { return &Store{db: db} }

// 部分一致検索。照合順序まかせなので大文字小文字は区別しない。
func (s *Store) Search(ctx context.Context, keyword string) ([]Author, error) {
	const q = `
	SELECT author_id, name, is_deleted
	FROM author
	WHERE is_deleted = 0 AND name LIKE CONCAT('%', ?, '%')
	ORDER BY name`
	rows, err := s.db.QueryContext(ctx, q, keyword)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuthors(rows)
}

func (s *Store) ListActive(ctx context.Context) ([]Author, error) {
	const q = `SELECT author_id, name, is_deleted FROM author WHERE is_deleted = 0 ORDER BY name`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuthors(rows)
}

func (s *Store) GetActive(ctx context.Context, id int64) (*Author, error) {
	const q = `SELECT author_id, name, is_deleted FROM author WHERE author_id = ? AND is_deleted = 0`
	var a Author
	var isDeletedInt int
	err := s.db.QueryRowContext(ctx, q, id).Scan(&a.AuthorID, &a.Name, &isDeletedInt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.IsDeleted = isDeletedInt != 0
	return &a, nil
}

func (s *Store) Insert(ctx context.Context, a *Author) error {
	const q = `INSERT INTO author (name, is_deleted) VALUES (?, 0)`
	res, err := s.db.ExecContext(ctx, q, a.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.AuthorID = id
	return nil
}

func (s *Store) UpdateName(ctx context.Context, id int64, name string) (int64, error) {
	const q = `UPDATE author SET name = ? WHERE author_id = ? AND is_deleted = 0`
	res, err := s.db.ExecContext(ctx, q, name, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) SoftDelete(ctx context.Context, id int64) (int64, error) {
	const q = `UPDATE author SET is_deleted = 1 WHERE author_id = ? AND is_deleted = 0`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanAuthors(rows *sql.Rows) ([]Author, error) {
	var out []Author
	for rows.Next() {
		var a Author
		var isDeletedInt int
		if err := rows.Scan(&a.AuthorID, &a.Name, &isDeletedInt); err != nil {
			return nil, err
		}
		a.IsDeleted = isDeletedInt != 0
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
