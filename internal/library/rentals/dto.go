package rentals

import "time"

// ===== Requests =====

type CheckoutRequest struct {
	BookID string `json:"book_id" binding:"required"` // ISBNの数値文字列
}

type ReturnRequest struct {
	ID int64 `json:"id" binding:"required"`
}

// ===== Responses =====

type CheckoutResponse struct {
	ID           int64     `json:"id"`
	RentalULID   string    `json:"rental_ulid"`
	BookISBN     uint64    `json:"book_isbn"`
	CheckoutDate time.Time `json:"checkout_date"`
	DueDate      time.Time `json:"due_date"`
}

type ReturnResponse struct {
	ID           int64     `json:"id"`
	ReturnedDate time.Time `json:"returned_date"`
}

type HistoryItem struct {
	ID           int64      `json:"id"`
	BookISBN     uint64     `json:"book_isbn"`
	Title        string     `json:"title"`
	CheckoutDate time.Time  `json:"checkout_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnedDate *time.Time `json:"returned_date,omitempty"`
}

type HistoryResponse struct {
	History []HistoryItem `json:"history"`
}

type PendingResponse struct {
	Pending []HistoryItem `json:"pending"`
}
