package rentals

import (
	"database/sql"
	"time"
)

// RentalLog は rental_log テーブルの1行を表す。
// returned_date が NULL の行 = 貸出中。1冊につき同時に高々1行しか存在しない。
type RentalLog struct {
	RentalID     int64
	RentalULID   string
	BookISBN     uint64
	UserID       int64
	CheckoutDate time.Time
	DueDate      time.Time
	ReturnedDate sql.NullTime
}

// 履歴表示用。削除済みの本でも行は残るので書名は NULL になりうる。
type HistoryRow struct {
	RentalLog
	Title sql.NullString
}
