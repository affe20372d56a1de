package authors

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/auth"
)

// ===== DTO =====

type AuthorSummary struct {
	AuthorID int64  `json:"author_id"`
	Name     string `json:"name"`
}

type CreateAuthorRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdateAuthorRequest struct {
	Name string `json:"name" binding:"required"`
}

// ===== Service =====

type Service struct {
	store AuthorStore
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

// Search: id と名前のペアだけ返す（候補選択用）
func (s *Service) Search(ctx context.Context, keyword string) ([]AuthorSummary, error) {
	items, err := s.store.Search(ctx, keyword)
	if err != nil {
		return nil, err
	}
	return toSummaries(items), nil
}

func (s *Service) ListAdmin(ctx context.Context, ident auth.Identity) ([]AuthorSummary, error) {
	if !ident.IsAdmin {
		return nil, apierr.ErrForbidden("admin only")
	}
	items, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return toSummaries(items), nil
}

func (s *Service) Create(ctx context.Context, ident auth.Identity, in CreateAuthorRequest) (AuthorSummary, error) {
	if !ident.IsAdmin {
		return AuthorSummary{}, apierr.ErrForbidden("admin only")
	}
	if strings.TrimSpace(in.Name) == "" {
		return AuthorSummary{}, apierr.ErrInvalid("name is required")
	}
	a := &Author{Name: in.Name}
	if err := s.store.Insert(ctx, a); err != nil {
		return AuthorSummary{}, err
	}
	return AuthorSummary{AuthorID: a.AuthorID, Name: a.Name}, nil
}

func (s *Service) Update(ctx context.Context, ident auth.Identity, token string, in UpdateAuthorRequest) (AuthorSummary, error) {
	if !ident.IsAdmin {
		return AuthorSummary{}, apierr.ErrForbidden("admin only")
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return AuthorSummary{}, apierr.ErrInvalid("author_id must be a number")
	}
	if strings.TrimSpace(in.Name) == "" {
		return AuthorSummary{}, apierr.ErrInvalid("name is required")
	}
	aff, err := s.store.UpdateName(ctx, id, in.Name)
	if err != nil {
		return AuthorSummary{}, err
	}
	if aff == 0 {
		// RowsAffected は変更された行数なので、同名更新と不在を区別する
		a, err := s.store.GetActive(ctx, id)
		if err != nil {
			return AuthorSummary{}, err
		}
		if a == nil {
			return AuthorSummary{}, apierr.ErrNotFound("author not found")
		}
	}
	return AuthorSummary{AuthorID: id, Name: in.Name}, nil
}

func (s *Service) Delete(ctx context.Context, ident auth.Identity, token string) error {
	if !ident.IsAdmin {
		return apierr.ErrForbidden("admin only")
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return apierr.ErrInvalid("author_id must be a number")
	}
	aff, err := s.store.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if aff == 0 {
		return apierr.ErrNotFound("author not found")
	}
	return nil
}

func toSummaries(items []Author) []AuthorSummary {
	out := make([]AuthorSummary, 0, len(items))
	for _, a := range items {
		out = append(out, AuthorSummary{AuthorID: a.AuthorID, Name: a.Name})
	}
	return out
}
