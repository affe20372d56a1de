package rentals

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/auth"
)

// ===== fakes =====

type fakeRentalStore struct {
	nextID int64
	rows   []*RentalLog
	books  map[uint64]string // 貸出可能な本 isbn → title
}

func newFakeRentalStore() *fakeRentalStore {
	return &fakeRentalStore{nextID: 1, books: map[uint64]string{}}
}

func (f *fakeRentalStore) ExecCheckout(_ context.Context, r *RentalLog) error {
	if _, ok := f.books[r.BookISBN]; !ok {
		return apierr.ErrNotFound("book not found")
	}
	for _, row := range f.rows {
		if row.BookISBN == r.BookISBN && !row.ReturnedDate.Valid {
			return apierr.ErrConflict("book is already rented")
		}
	}
	r.RentalID = f.nextID
	f.nextID++
	cp := *r
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeRentalStore) GetByID(_ context.Context, id int64) (*RentalLog, error) {
	for _, row := range f.rows {
		if row.RentalID == id {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRentalStore) MarkReturned(_ context.Context, id int64, at time.Time) (int64, error) {
	for _, row := range f.rows {
		if row.RentalID == id && !row.ReturnedDate.Valid {
			row.ReturnedDate = sql.NullTime{Time: at, Valid: true}
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeRentalStore) ListByUser(_ context.Context, userID int64) ([]HistoryRow, error) {
	var out []HistoryRow
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, f.historyRow(f.rows[i]))
		}
	}
	return out, nil
}

func (f *fakeRentalStore) ListPending(_ context.Context, userID int64) ([]HistoryRow, error) {
	var out []HistoryRow
	for _, row := range f.rows {
		if row.UserID == userID && !row.ReturnedDate.Valid {
			out = append(out, f.historyRow(row))
		}
	}
	return out, nil
}

func (f *fakeRentalStore) ListAll(_ context.Context) ([]HistoryRow, error) {
	var out []HistoryRow
	for i := len(f.rows) - 1; i >= 0; i-- {
		out = append(out, f.historyRow(f.rows[i]))
	}
	return out, nil
}

func (f *fakeRentalStore) historyRow(r *RentalLog) HistoryRow {
	h := HistoryRow{RentalLog: *r}
	if title, ok := f.books[r.BookISBN]; ok {
		h.Title = sql.NullString{String: title, Valid: true}
	}
	return h
}

type stubClock struct{ t time.Time }

func (c *stubClock) Now() time.Time { return c.t }

type seqIDGen struct{ n int }

func (g *seqIDGen) NewULID(time.Time) string {
	g.n++
	return fmt.Sprintf("01TESTULID%016d", g.n)
}

func newTestService(f *fakeRentalStore, clock *stubClock) *Service {
	return &Service{store: f, clock: clock, id: &seqIDGen{}}
}

var (
	userA = auth.Identity{UserID: 10, Name: "A"}
	userB = auth.Identity{UserID: 20, Name: "B"}
)

func assertCode(t *testing.T, err error, code apierr.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apierr.From(err).Code)
}

// ===== Checkout =====

func TestCheckout(t *testing.T) {
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	f := newFakeRentalStore()
	f.books[9780000000001] = "テスト駆動開発"
	svc := newTestService(f, &stubClock{t: now})

	t.Run("success sets dates", func(t *testing.T) {
		res, err := svc.Checkout(context.Background(), userA, "9780000000001")
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.ID)
		assert.Equal(t, now, res.CheckoutDate)
		// 返却期限は貸出日+7日で固定
		assert.Equal(t, now.AddDate(0, 0, 7), res.DueDate)
		assert.NotEmpty(t, res.RentalULID)
	})

	t.Run("second checkout conflicts", func(t *testing.T) {
		_, err := svc.Checkout(context.Background(), userB, "9780000000001")
		assertCode(t, err, apierr.CodeConflict)
	})

	t.Run("non numeric book id", func(t *testing.T) {
		_, err := svc.Checkout(context.Background(), userA, "not-a-number")
		assertCode(t, err, apierr.CodeInvalidArgument)
	})

	t.Run("unknown isbn", func(t *testing.T) {
		_, err := svc.Checkout(context.Background(), userA, "42")
		assertCode(t, err, apierr.CodeNotFound)
	})
}

// ===== Return =====

func TestReturn(t *testing.T) {
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	clock := &stubClock{t: now}
	f := newFakeRentalStore()
	f.books[9780000000001] = "リーダブルコード"
	svc := newTestService(f, clock)

	res, err := svc.Checkout(context.Background(), userA, "9780000000001")
	require.NoError(t, err)

	t.Run("unknown rental id", func(t *testing.T) {
		_, err := svc.Return(context.Background(), userA, 999)
		assertCode(t, err, apierr.CodeNotFound)
	})

	t.Run("non owner is forbidden", func(t *testing.T) {
		_, err := svc.Return(context.Background(), userB, res.ID)
		assertCode(t, err, apierr.CodeForbidden)
	})

	t.Run("owner returns", func(t *testing.T) {
		clock.t = now.Add(48 * time.Hour)
		ret, err := svc.Return(context.Background(), userA, res.ID)
		require.NoError(t, err)
		assert.Equal(t, res.ID, ret.ID)
		assert.Equal(t, clock.t, ret.ReturnedDate)
	})

	t.Run("double return conflicts", func(t *testing.T) {
		_, err := svc.Return(context.Background(), userA, res.ID)
		assertCode(t, err, apierr.CodeConflict)
	})
}

// 貸出→競合→返却→再貸出の一連の流れ
func TestCheckoutReturnCycle(t *testing.T) {
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	clock := &stubClock{t: now}
	f := newFakeRentalStore()
	f.books[9780000000001] = "人月の神話"
	svc := newTestService(f, clock)

	ctx := context.Background()

	resA, err := svc.Checkout(ctx, userA, "9780000000001")
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, userB, "9780000000001")
	assertCode(t, err, apierr.CodeConflict)

	clock.t = now.Add(24 * time.Hour)
	_, err = svc.Return(ctx, userA, resA.ID)
	require.NoError(t, err)

	resB, err := svc.Checkout(ctx, userB, "9780000000001")
	require.NoError(t, err)
	assert.NotEqual(t, resA.ID, resB.ID)
	// 返却期限は新しい貸出日から計算し直す
	assert.Equal(t, clock.t.AddDate(0, 0, 7), resB.DueDate)
}

// ===== History / Pending =====

func TestHistoryAndPending(t *testing.T) {
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	clock := &stubClock{t: now}
	f := newFakeRentalStore()
	f.books[1] = "一冊目"
	f.books[2] = "二冊目"
	svc := newTestService(f, clock)

	ctx := context.Background()

	r1, err := svc.Checkout(ctx, userA, "1")
	require.NoError(t, err)
	clock.t = clock.t.Add(time.Hour)
	_, err = svc.Checkout(ctx, userA, "2")
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour)
	_, err = svc.Return(ctx, userA, r1.ID)
	require.NoError(t, err)

	hist, err := svc.History(ctx, userA)
	require.NoError(t, err)
	require.Len(t, hist.History, 2)
	// 新しい順
	assert.Equal(t, "二冊目", hist.History[0].Title)
	assert.Nil(t, hist.History[0].ReturnedDate)
	assert.Equal(t, "一冊目", hist.History[1].Title)
	require.NotNil(t, hist.History[1].ReturnedDate)

	pending, err := svc.Pending(ctx, userA)
	require.NoError(t, err)
	require.Len(t, pending.Pending, 1)
	assert.Equal(t, "二冊目", pending.Pending[0].Title)

	// 他人の履歴は混ざらない
	histB, err := svc.History(ctx, userB)
	require.NoError(t, err)
	assert.Empty(t, histB.History)
}

// 本が消えていても履歴はプレースホルダで出す
func TestHistoryUnknownBookPlaceholder(t *testing.T) {
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	f := newFakeRentalStore()
	f.books[1] = "消える本"
	svc := newTestService(f, &stubClock{t: now})

	ctx := context.Background()
	_, err := svc.Checkout(ctx, userA, "1")
	require.NoError(t, err)

	delete(f.books, 1)

	hist, err := svc.History(ctx, userA)
	require.NoError(t, err)
	require.Len(t, hist.History, 1)
	assert.Equal(t, "unknown book", hist.History[0].Title)
}
