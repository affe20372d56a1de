package publishers

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/auth"
)

// authors と同型。エンティティが増えたら共通化を検討。

type PublisherSummary struct {
	PublisherID int64  `json:"publisher_id"`
	Name        string `json:"name"`
}

type CreatePublisherRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdatePublisherRequest struct {
	Name string `json:"name" binding:"required"`
}

type Service struct {
	store PublisherStore
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

func (s *Service) Search(ctx context.Context, keyword string) ([]PublisherSummary, error) {
	items, err := s.store.Search(ctx, keyword)
	if err != nil {
		return nil, err
	}
	return toSummaries(items), nil
}

func (s *Service) ListAdmin(ctx context.Context, ident auth.Identity) ([]PublisherSummary, error) {
	if !ident.IsAdmin {
		return nil, apierr.ErrForbidden("admin only")
	}
	items, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return toSummaries(items), nil
}

func (s *Service) Create(ctx context.Context, ident auth.Identity, in CreatePublisherRequest) (PublisherSummary, error) {
	if !ident.IsAdmin {
		return PublisherSummary{}, apierr.ErrForbidden("admin only")
	}
	if strings.TrimSpace(in.Name) == "" {
		return PublisherSummary{}, apierr.ErrInvalid("name is required")
	}
	p := &Publisher{Name: in.Name}
	if err := s.store.Insert(ctx, p); err != nil {
		return PublisherSummary{}, err
	}
	return PublisherSummary{PublisherID: p.PublisherID, Name: p.Name}, nil
}

func (s *Service) Update(ctx context.Context, ident auth.Identity, token string, in UpdatePublisherRequest) (PublisherSummary, error) {
	if !ident.IsAdmin {
		return PublisherSummary{}, apierr.ErrForbidden("admin only")
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return PublisherSummary{}, apierr.ErrInvalid("publisher_id must be a number")
	}
	if strings.TrimSpace(in.Name) == "" {
		return PublisherSummary{}, apierr.ErrInvalid("name is required")
	}
	aff, err := s.store.UpdateName(ctx, id, in.Name)
	if err != nil {
		return PublisherSummary{}, err
	}
	if aff == 0 {
		// RowsAffected は変更された行数なので、同名更新と不在を区別する
		p, err := s.store.GetActive(ctx, id)
		if err != nil {
			return PublisherSummary{}, err
		}
		if p == nil {
			return PublisherSummary{}, apierr.ErrNotFound("publisher not found")
		}
	}
	return PublisherSummary{PublisherID: id, Name: in.Name}, nil
}

func (s *Service) Delete(ctx context.Context, ident auth.Identity, token string) error {
	if !ident.IsAdmin {
		return apierr.ErrForbidden("admin only")
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return apierr.ErrInvalid("publisher_id must be a number")
	}
	aff, err := s.store.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if aff == 0 {
		return apierr.ErrNotFound("publisher not found")
	}
	return nil
}

func toSummaries(items []Publisher) []PublisherSummary {
	out := make([]PublisherSummary, 0, len(items))
	for _, p := range items {
		out = append(out, PublisherSummary{PublisherID: p.PublisherID, Name: p.Name})
	}
	return out
}
