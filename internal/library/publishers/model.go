package publishers

type Publisher struct {
	PublisherID int64
	Name        string
	IsDeleted   bool
}
