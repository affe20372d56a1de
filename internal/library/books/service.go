package books

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	mysql "github.com/go-sql-driver/mysql"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/auth"
)

const PageSize = 5

// 参照先が消えている場合のプレースホルダ
const (
	unknownAuthor    = "unknown author"
	unknownPublisher = "unknown publisher"
)

type Service struct {
	store BookStore
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

// ===== Catalog =====

// List: ページ番号を [1, lastPage] にクランプして5件ずつ返す。
// 0件でも lastPage は最低1。
func (s *Service) List(ctx context.Context, page int) (BookListResponse, error) {
	total, err := s.store.CountActive(ctx)
	if err != nil {
		return BookListResponse{}, err
	}

	last := int((total + PageSize - 1) / PageSize)
	if last < 1 {
		last = 1
	}
	if page < 1 {
		page = 1
	}
	if page > last {
		page = last
	}

	items, err := s.store.ListPage(ctx, PageSize, (page-1)*PageSize)
	if err != nil {
		return BookListResponse{}, err
	}

	// 著者名の解決。同じ著者を何度も引かないようメモしておく。
	names := map[int64]string{}
	summaries := make([]BookSummary, 0, len(items))
	for _, b := range items {
		name, ok := names[b.AuthorID]
		if !ok {
			name, err = s.store.AuthorName(ctx, b.AuthorID)
			if err != nil {
				return BookListResponse{}, err
			}
			if name == "" {
				name = unknownAuthor
			}
			names[b.AuthorID] = name
		}
		summaries = append(summaries, BookSummary{
			ISBN:           b.ISBN,
			Title:          b.Title,
			AuthorName:     name,
			PublishedYear:  b.PublishedYear,
			PublishedMonth: b.PublishedMonth,
		})
	}

	return BookListResponse{
		Current:  page,
		LastPage: last,
		Books:    summaries,
	}, nil
}

// Detail: ISBNトークンが数値として読めない場合も「無い本」として扱う
func (s *Service) Detail(ctx context.Context, token string) (BookDetailResponse, error) {
	isbn, err := strconv.ParseUint(token, 10, 64)
	if err != nil {
		return BookDetailResponse{}, apierr.ErrNotFound("book not found")
	}

	b, err := s.store.GetActive(ctx, isbn)
	if err != nil {
		return BookDetailResponse{}, err
	}
	if b == nil {
		return BookDetailResponse{}, apierr.ErrNotFound("book not found")
	}

	authorName, err := s.store.AuthorName(ctx, b.AuthorID)
	if err != nil {
		return BookDetailResponse{}, err
	}
	if authorName == "" {
		authorName = unknownAuthor
	}
	publisherName, err := s.store.PublisherName(ctx, b.PublisherID)
	if err != nil {
		return BookDetailResponse{}, err
	}
	if publisherName == "" {
		publisherName = unknownPublisher
	}

	isRental, err := s.store.HasActiveRental(ctx, b.ISBN)
	if err != nil {
		return BookDetailResponse{}, err
	}

	return BookDetailResponse{
		ISBN:           b.ISBN,
		Title:          b.Title,
		AuthorName:     authorName,
		PublisherName:  publisherName,
		PublishedYear:  b.PublishedYear,
		PublishedMonth: b.PublishedMonth,
		IsRental:       isRental,
	}, nil
}

// ===== Admin =====

func (s *Service) ListAdmin(ctx context.Context, ident auth.Identity) ([]BookAdminResponse, error) {
	if !ident.IsAdmin {
		return nil, apierr.ErrForbidden("admin only")
	}
	items, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BookAdminResponse, 0, len(items))
	for _, b := range items {
		out = append(out, BookAdminResponse{
			ISBN:           b.ISBN,
			Title:          b.Title,
			AuthorID:       b.AuthorID,
			PublisherID:    b.PublisherID,
			PublishedYear:  b.PublishedYear,
			PublishedMonth: b.PublishedMonth,
		})
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, ident auth.Identity, in CreateBookRequest) (BookAdminResponse, error) {
	if !ident.IsAdmin {
		return BookAdminResponse{}, apierr.ErrForbidden("admin only")
	}
	if strings.TrimSpace(in.Title) == "" || in.AuthorID <= 0 || in.PublisherID <= 0 {
		return BookAdminResponse{}, apierr.ErrInvalid("title, author_id, publisher_id are required")
	}
	if in.PublishedMonth < 1 || in.PublishedMonth > 12 {
		return BookAdminResponse{}, apierr.ErrInvalid("published_month must be 1-12")
	}
	isbn, err := strconv.ParseUint(in.ISBN, 10, 64)
	if err != nil {
		return BookAdminResponse{}, apierr.ErrInvalid("isbn must be a number")
	}

	b := &Book{
		ISBN:           isbn,
		Title:          in.Title,
		AuthorID:       in.AuthorID,
		PublisherID:    in.PublisherID,
		PublishedYear:  in.PublishedYear,
		PublishedMonth: in.PublishedMonth,
	}

	existing, err := s.store.GetAny(ctx, isbn)
	if err != nil {
		return BookAdminResponse{}, err
	}
	switch {
	case existing == nil:
		if err := s.store.Insert(ctx, b); err != nil {
			var me *mysql.MySQLError
			if errors.As(err, &me) && me.Number == 1062 { // duplicate key
				return BookAdminResponse{}, apierr.ErrConflict("isbn already registered")
			}
			return BookAdminResponse{}, err
		}
	case existing.IsDeleted:
		// isbn がPKなので再INSERTはできない。削除済み行を上書きして復活させる。
		if err := s.store.Revive(ctx, b); err != nil {
			return BookAdminResponse{}, err
		}
	default:
		return BookAdminResponse{}, apierr.ErrConflict("isbn already registered")
	}

	return BookAdminResponse{
		ISBN:           b.ISBN,
		Title:          b.Title,
		AuthorID:       b.AuthorID,
		PublisherID:    b.PublisherID,
		PublishedYear:  b.PublishedYear,
		PublishedMonth: b.PublishedMonth,
	}, nil
}

func (s *Service) Update(ctx context.Context, ident auth.Identity, token string, in UpdateBookRequest) (BookAdminResponse, error) {
	if !ident.IsAdmin {
		return BookAdminResponse{}, apierr.ErrForbidden("admin only")
	}
	isbn, err := strconv.ParseUint(token, 10, 64)
	if err != nil {
		return BookAdminResponse{}, apierr.ErrInvalid("isbn must be a number")
	}
	if in.PublishedMonth != nil && (*in.PublishedMonth < 1 || *in.PublishedMonth > 12) {
		return BookAdminResponse{}, apierr.ErrInvalid("published_month must be 1-12")
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return BookAdminResponse{}, apierr.ErrInvalid("title must not be empty")
	}

	// RowsAffected は「変更された行」なので、同値更新と不在の区別がつかない。
	// 存在確認は更新後の取得に任せる。
	if _, err := s.store.Update(ctx, isbn, in); err != nil {
		return BookAdminResponse{}, err
	}

	b, err := s.store.GetActive(ctx, isbn)
	if err != nil {
		return BookAdminResponse{}, err
	}
	if b == nil {
		return BookAdminResponse{}, apierr.ErrNotFound("book not found")
	}
	return BookAdminResponse{
		ISBN:           b.ISBN,
		Title:          b.Title,
		AuthorID:       b.AuthorID,
		PublisherID:    b.PublisherID,
		PublishedYear:  b.PublishedYear,
		PublishedMonth: b.PublishedMonth,
	}, nil
}

func (s *Service) Delete(ctx context.Context, ident auth.Identity, token string) error {
	if !ident.IsAdmin {
		return apierr.ErrForbidden("admin only")
	}
	isbn, err := strconv.ParseUint(token, 10, 64)
	if err != nil {
		return apierr.ErrInvalid("isbn must be a number")
	}
	aff, err := s.store.SoftDelete(ctx, isbn)
	if err != nil {
		return err
	}
	if aff == 0 {
		return apierr.ErrNotFound("book not found")
	}
	return nil
}
