package book

// Query defines filters and pagination for listing books. Zero values mean
// "no filter"; a zero Limit returns every matching book.
type Query struct {
	Owner    string
	Search   string
	Category string
	Status   Status
	After    CursorData
	Limit    int
}
