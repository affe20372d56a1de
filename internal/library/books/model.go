package books

// Book は book テーブルの1行を表す。
// isbn が自然キー（サロゲートidなし）。削除はフラグのみで行は消さない。
type Book struct {
	ISBN           uint64
	Title          string
	AuthorID       int64
	PublisherID    int64
	PublishedYear  int
	PublishedMonth int
	IsDeleted      bool
}
