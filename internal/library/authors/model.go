package authors

type Author struct {
	AuthorID  int64
	Name      string
	IsDeleted bool
}
