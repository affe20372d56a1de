package books

// ===== Requests =====

type CreateBookRequest struct {
	ISBN           string `json:"isbn" binding:"required"` // 数値文字列（13桁を想定）
	Title          string `json:"title" binding:"required"`
	AuthorID       int64  `json:"author_id" binding:"required"`
	PublisherID    int64  `json:"publisher_id" binding:"required"`
	PublishedYear  int    `json:"published_year" binding:"required"`
	PublishedMonth int    `json:"published_month" binding:"required"`
}

type UpdateBookRequest struct {
	Title          *string `json:"title,omitempty"`
	AuthorID       *int64  `json:"author_id,omitempty"`
	PublisherID    *int64  `json:"publisher_id,omitempty"`
	PublishedYear  *int    `json:"published_year,omitempty"`
	PublishedMonth *int    `json:"published_month,omitempty"`
}

// ===== Responses =====

type BookSummary struct {
	ISBN           uint64 `json:"isbn"`
	Title          string `json:"title"`
	AuthorName     string `json:"author_name"`
	PublishedYear  int    `json:"published_year"`
	PublishedMonth int    `json:"published_month"`
}

type BookListResponse struct {
	Current  int           `json:"current"`
	LastPage int           `json:"last_page"`
	Books    []BookSummary `json:"books"`
}

// テンプレート用のページ送り
func (r BookListResponse) Prev() int { return r.Current - 1 }
func (r BookListResponse) Next() int { return r.Current + 1 }

type BookDetailResponse struct {
	ISBN           uint64 `json:"isbn"`
	Title          string `json:"title"`
	AuthorName     string `json:"author_name"`
	PublisherName  string `json:"publisher_name"`
	PublishedYear  int    `json:"published_year"`
	PublishedMonth int    `json:"published_month"`
	IsRental       bool   `json:"is_rental"`
}

type BookAdminResponse struct {
	ISBN           uint64 `json:"isbn"`
	Title          string `json:"title"`
	AuthorID       int64  `json:"author_id"`
	PublisherID    int64  `json:"publisher_id"`
	PublishedYear  int    `json:"published_year"`
	PublishedMonth int    `json:"published_month"`
}
