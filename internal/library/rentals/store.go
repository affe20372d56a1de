package rentals

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

type RentalStore interface {
	ExecCheckout(ctx context.Context, r *RentalLog) error
	GetByID(ctx context.Context, id int64) (*RentalLog, error)
	MarkReturned(ctx context.Context, id int64, at time.Time) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error)
	ListPending(ctx context.Context, userID int64) ([]HistoryRow, error)
	ListAll(ctx context.Context) ([]HistoryRow, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) RentalStore { return &Store{db: db} }

// ExecCheckout: 貸出の一連の流れを1トランザクションで実行する。
//  1. book 行を FOR UPDATE でロック（無い/削除済みなら NOT_FOUND）
//  2. 貸出中チェック（returned_date IS NULL の行があれば CONFLICT）
//  3. rental_log へINSERT
//
// 同一ISBNへの同時貸出は 1 の行ロックで直列化されるので、
// 負けた側は 2 で必ず CONFLICT になる。
func (s *Store) ExecCheckout(ctx context.Context, r *RentalLog) error {
	return db.RunInTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx db.DBTX) error {
		// 1. Lock book row
		const lockQ = `SELECT isbn FROM book WHERE isbn = ? AND is_deleted = 0 FOR UPDATE`
		var isbn uint64
		if err := tx.QueryRowContext(ctx, lockQ, r.BookISBN).Scan(&isbn); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apierr.ErrNotFound("book not found")
			}
			return err
		}

		// 2. Availability check
		const activeQ = `SELECT COUNT(*) FROM rental_log WHERE book_isbn = ? AND returned_date IS NULL`
		var active int64
		if err := tx.QueryRowContext(ctx, activeQ, r.BookISBN).Scan(&active); err != nil {
			return err
		}
		if active > 0 {
			return apierr.ErrConflict("book is already rented")
		}

		// 3. Insert rental
		const insQ = `
		INSERT INTO rental_log
		(rental_ulid, book_isbn, user_id, checkout_date, due_date, returned_date)
		VALUES (?, ?, ?, ?, ?, NULL)`
		res, err := tx.ExecContext(ctx, insQ,
			r.RentalULID, r.BookISBN, r.UserID, r.CheckoutDate, r.DueDate)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		r.RentalID = id
		return nil
	})
}

func (s *Store) GetByID(ctx context.Context, id int64) (*RentalLog, error) {
	const q = `
	SELECT rental_id, rental_ulid, book_isbn, user_id, checkout_date, due_date, returned_date
	FROM rental_log WHERE rental_id = ?`
	var r RentalLog
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&r.RentalID, &r.RentalULID, &r.BookISBN, &r.UserID,
		&r.CheckoutDate, &r.DueDate, &r.ReturnedDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// MarkReturned: 未返却の行だけを対象にする。
// RowsAffected=0 は「既に返却済み」を意味する（存在チェックは呼び出し側）。
func (s *Store) MarkReturned(ctx context.Context, id int64, at time.Time) (int64, error) {
	const q = `UPDATE rental_log SET returned_date = ? WHERE rental_id = ? AND returned_date IS NULL`
	res, err := s.db.ExecContext(ctx, q, at, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// 貸出履歴（新しい順）。本が消えていても履歴は出すのでLEFT JOIN。
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error) {
	const q = `
	SELECT
	r.rental_id, r.rental_ulid, r.book_isbn, r.user_id, r.checkout_date, r.due_date, r.returned_date,
	b.title
	FROM rental_log r
	LEFT JOIN book b ON b.isbn = r.book_isbn
	WHERE r.user_id = ?
	ORDER BY r.checkout_date DESC, r.rental_id DESC`
	return s.queryRows(ctx, q, userID)
}

// 返却待ち（古い順）
func (s *Store) ListPending(ctx context.Context, userID int64) ([]HistoryRow, error) {
	const q = `
	SELECT
	r.rental_id, r.rental_ulid, r.book_isbn, r.user_id, r.checkout_date, r.due_date, r.returned_date,
	b.title
	FROM rental_log r
	LEFT JOIN book b ON b.isbn = r.book_isbn
	WHERE r.user_id = ? AND r.returned_date IS NULL
	ORDER BY r.checkout_date ASC, r.rental_id ASC`
	return s.queryRows(ctx, q, userID)
}

// 全履歴（CSVエクスポート用）
func (s *Store) ListAll(ctx context.Context) ([]HistoryRow, error) {
	const q = `
	SELECT
	r.rental_id, r.rental_ulid, r.book_isbn, r.user_id, r.checkout_date, r.due_date, r.returned_date,
	b.title
	FROM rental_log r
	LEFT JOIN book b ON b.isbn = r.book_isbn
	ORDER BY r.checkout_date DESC, r.rental_id DESC`
	return s.queryRows(ctx, q)
}

func (s *Store) queryRows(ctx context.Context, q string, args ...any) ([]HistoryRow, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var r HistoryRow
		if err := rows.Scan(
			&r.RentalID, &r.RentalULID, &r.BookISBN, &r.UserID,
			&r.CheckoutDate, &r.DueDate, &r.ReturnedDate,
			&r.Title,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
