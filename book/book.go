package book

// Book is a single record of the shelf
type Book struct {
	ID     string `json:"id" db:"id" yaml:"-"`
	Title  string `json:"title" db:"title" yaml:"title"`
	Author string `json:"author" db:"author" yaml:"author"`
	Read   bool   `json:"read" db:"read" yaml:"read"`
}

// Fields holds the caller supplied values of a book, without identifier.
// Missing JSON keys decode to empty strings and false.
type Fields struct {
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	Read   bool   `json:"read" yaml:"read"`
}

// WithID builds a Book from fields and an identifier
func (f Fields) WithID(id string) Book {
	return Book{ID: id, Title: f.Title, Author: f.Author, Read: f.Read}
}
