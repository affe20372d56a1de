package books

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

type BookStore interface {
	CountActive(ctx context.Context) (int64, error)
	ListPage(ctx context.Context, limit, offset int) ([]Book, error)
	ListActive(ctx context.Context) ([]Book, error)
	GetActive(ctx context.Context, isbn uint64) (*Book, error)
	GetAny(ctx context.Context, isbn uint64) (*Book, error)
	Insert(ctx context.Context, b *Book) error
	Revive(ctx context.Context, b *Book) error
	Update(ctx context.Context, isbn uint64, in UpdateBookRequest) (int64, error)
	SoftDelete(ctx context.Context, isbn uint64) (int64, error)
	AuthorName(ctx context.Context, id int64) (string, error)
	PublisherName(ctx context.Context, id int64) (string, error)
	HasActiveRental(ctx context.Context, isbn uint64) (bool, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) BookStore { return &Store{db: db} }

const bookColumns = `isbn, title, author_id, publisher_id, published_year, published_month, is_deleted`

func (s *Store) CountActive(ctx context.Context) (int64, error) {
	const q = `SELECT COUNT(*) FROM book WHERE is_deleted = 0`
	var n int64
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// 出版年・月の降順。同値の場合はPK順（= 登録順）で安定。
func (s *Store) ListPage(ctx context.Context, limit, offset int) ([]Book, error) {
	const q = `
	SELECT ` + bookColumns + `
	FROM book
	WHERE is_deleted = 0
	ORDER BY published_year DESC, published_month DESC
	LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBooks(rows)
}

func (s *Store) ListActive(ctx context.Context) ([]Book, error) {
	const q = `
	SELECT ` + bookColumns + `
	FROM book
	WHERE is_deleted = 0
	ORDER BY published_year DESC, published_month DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBooks(rows)
}

func (s *Store) GetActive(ctx context.Context, isbn uint64) (*Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM book WHERE isbn = ? AND is_deleted = 0`
	return s.getOne(ctx, q, isbn)
}

func (s *Store) GetAny(ctx context.Context, isbn uint64) (*Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM book WHERE isbn = ?`
	return s.getOne(ctx, q, isbn)
}

func (s *Store) getOne(ctx context.Context, q string, isbn uint64) (*Book, error) {
	var b Book
	var isDeletedInt int
	err := s.db.QueryRowContext(ctx, q, isbn).Scan(
		&b.ISBN, &b.Title, &b.AuthorID, &b.PublisherID,
		&b.PublishedYear, &b.PublishedMonth, &isDeletedInt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.IsDeleted = isDeletedInt != 0
	return &b, nil
}

func (s *Store) Insert(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO book
	(isbn, title, author_id, publisher_id, published_year, published_month, is_deleted)
	VALUES (?, ?, ?, ?, ?, ?, 0)`
	_, err := s.db.ExecContext(ctx, q,
		b.ISBN, b.Title, b.AuthorID, b.PublisherID, b.PublishedYear, b.PublishedMonth)
	return err
}

// Revive: 論理削除済み行を新しい内容で上書きして復活させる。
// isbn がPKなので同一ISBNの再登録はINSERTではなくこちらを通る。
func (s *Store) Revive(ctx context.Context, b *Book) error {
	const q = `
	UPDATE book
	SET title = ?, author_id = ?, publisher_id = ?, published_year = ?, published_month = ?, is_deleted = 0
	WHERE isbn = ? AND is_deleted = 1`
	res, err := s.db.ExecContext(ctx, q,
		b.Title, b.AuthorID, b.PublisherID, b.PublishedYear, b.PublishedMonth, b.ISBN)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return sql.ErrNoRows
	}
	return nil
}

// 動的アップデート
func (s *Store) Update(ctx context.Context, isbn uint64, in UpdateBookRequest) (int64, error) {
	sets := []string{}
	args := []any{}
	if in.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *in.Title)
	}
	if in.AuthorID != nil {
		sets = append(sets, "author_id = ?")
		args = append(args, *in.AuthorID)
	}
	if in.PublisherID != nil {
		sets = append(sets, "publisher_id = ?")
		args = append(args, *in.PublisherID)
	}
	if in.PublishedYear != nil {
		sets = append(sets, "published_year = ?")
		args = append(args, *in.PublishedYear)
	}
	if in.PublishedMonth != nil {
		sets = append(sets, "published_month = ?")
		args = append(args, *in.PublishedMonth)
	}
	if len(sets) == 0 {
		// 変更なしは行の存在確認だけ
		b, err := s.GetActive(ctx, isbn)
		if err != nil {
			return 0, err
		}
		if b == nil {
			return 0, nil
		}
		return 1, nil
	}

	q := `UPDATE book SET ` + strings.Join(sets, ", ") + ` WHERE isbn = ? AND is_deleted = 0`
	args = append(args, isbn)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) SoftDelete(ctx context.Context, isbn uint64) (int64, error) {
	const q = `UPDATE book SET is_deleted = 1 WHERE isbn = ? AND is_deleted = 0`
	res, err := s.db.ExecContext(ctx, q, isbn)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// 見つからない場合は ("", nil)。呼び出し側でプレースホルダに差し替える。
func (s *Store) AuthorName(ctx context.Context, id int64) (string, error) {
	const q = `SELECT name FROM author WHERE author_id = ?`
	var name string
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return name, nil
}

func (s *Store) PublisherName(ctx context.Context, id int64) (string, error) {
	const q = `SELECT name FROM publisher WHERE publisher_id = ?`
	var name string
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return name, nil
}

// 貸出可否の不変条件: returned_date が NULL の rental_log 行が無ければ貸出可能
func (s *Store) HasActiveRental(ctx context.Context, isbn uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM rental_log WHERE book_isbn = ? AND returned_date IS NULL`
	var n int64
	if err := s.db.QueryRowContext(ctx, q, isbn).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanBooks(rows *sql.Rows) ([]Book, error) {
	var out []Book
	for rows.Next() {
		var b Book
		var isDeletedInt int
		if err := rows.Scan(
			&b.ISBN, &b.Title, &b.AuthorID, &b.PublisherID,
			&b.PublishedYear, &b.PublishedMonth, &isDeletedInt,
		); err != nil {
			return nil, err
		}
		b.IsDeleted = isDeletedInt != 0
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
