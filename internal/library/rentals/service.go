package rentals

import (
	"context"
	"crypto/rand"
	"database/sql"
	"strconv"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/auth"
)

// 貸出期間は7日固定。貸出時に計算してそのまま保存し、以後再計算しない。
const rentalDays = 7

// プレースホルダ（本の行が消えている場合）
const unknownBook = "unknown book"

// ===== インターフェース群 =====

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ NewULID(t time.Time) string }

type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// ===== Service本体 =====

type Service struct {
	store RentalStore
	clock Clock
	id    IDGen
}

func NewService(db *sql.DB) *Service {
	return &Service{
		store: NewStore(db),
		clock: realClock{},
		id:    ulidGen{},
	}
}

// Checkout: 貸出登録。
// ISBNが読めない → INVALID_ARGUMENT、本が無い → NOT_FOUND、貸出中 → CONFLICT。
func (s *Service) Checkout(ctx context.Context, ident auth.Identity, bookID string) (CheckoutResponse, error) {
	isbn, err := strconv.ParseUint(bookID, 10, 64)
	if err != nil {
		return CheckoutResponse{}, apierr.ErrInvalid("book_id must be a number")
	}

	now := s.clock.Now()
	r := &RentalLog{
		RentalULID:   s.id.NewULID(now),
		BookISBN:     isbn,
		UserID:       ident.UserID,
		CheckoutDate: now,
		DueDate:      now.AddDate(0, 0, rentalDays),
	}

	if err := s.store.ExecCheckout(ctx, r); err != nil {
		return CheckoutResponse{}, err
	}

	return CheckoutResponse{
		ID:           r.RentalID,
		RentalULID:   r.RentalULID,
		BookISBN:     r.BookISBN,
		CheckoutDate: r.CheckoutDate,
		DueDate:      r.DueDate,
	}, nil
}

// Return: 返却登録。
// 行が無い → NOT_FOUND、借りた本人でない → FORBIDDEN、返却済み → CONFLICT。
func (s *Service) Return(ctx context.Context, ident auth.Identity, rentalID int64) (ReturnResponse, error) {
	r, err := s.store.GetByID(ctx, rentalID)
	if err != nil {
		return ReturnResponse{}, err
	}
	if r == nil {
		return ReturnResponse{}, apierr.ErrNotFound("rental not found")
	}
	if r.UserID != ident.UserID {
		return ReturnResponse{}, apierr.ErrForbidden("not the borrower")
	}
	if r.ReturnedDate.Valid {
		return ReturnResponse{}, apierr.ErrConflict("already returned")
	}

	now := s.clock.Now()
	aff, err := s.store.MarkReturned(ctx, rentalID, now)
	if err != nil {
		return ReturnResponse{}, err
	}
	if aff == 0 {
		// 取得と更新の間に他のリクエストが返却を完了させた場合
		return ReturnResponse{}, apierr.ErrConflict("already returned")
	}

	return ReturnResponse{ID: rentalID, ReturnedDate: now}, nil
}

func (s *Service) History(ctx context.Context, ident auth.Identity) (HistoryResponse, error) {
	rows, err := s.store.ListByUser(ctx, ident.UserID)
	if err != nil {
		return HistoryResponse{}, err
	}
	return HistoryResponse{History: toItems(rows)}, nil
}

func (s *Service) Pending(ctx context.Context, ident auth.Identity) (PendingResponse, error) {
	rows, err := s.store.ListPending(ctx, ident.UserID)
	if err != nil {
		return PendingResponse{}, err
	}
	return PendingResponse{Pending: toItems(rows)}, nil
}

func toItems(rows []HistoryRow) []HistoryItem {
	items := make([]HistoryItem, 0, len(rows))
	for _, r := range rows {
		item := HistoryItem{
			ID:           r.RentalID,
			BookISBN:     r.BookISBN,
			Title:        unknownBook,
			CheckoutDate: r.CheckoutDate,
			DueDate:      r.DueDate,
		}
		if r.Title.Valid {
			item.Title = r.Title.String
		}
		if r.ReturnedDate.Valid {
			t := r.ReturnedDate.Time
			item.ReturnedDate = &t
		}
		items = append(items, item)
	}
	return items
}
