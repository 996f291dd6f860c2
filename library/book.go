package library

// Books is an alias type for a slice of Book.
type Books = []Book

// Book is one entry in the catalog.
//
// ISBN is the unique key; Rating is the only mutable field and starts at
// zero when a book enters the catalog. While its properties are exported,
// it should only be constructed with BuildBook.
type Book struct {
	ISBN   ISBNString
	Title  string
	Author string
	Genre  GenreString
	Rating int
}

// BuildBook is a factory method for Book.
//
// It populates the Book with the given scalar input and a zero rating.
// Returns an error if the ISBN or title is empty.
func BuildBook(isbn ISBNString, title string, author string, genre GenreString) (Book, error) {
	if isbn == "" {
		return Book{}, ErrEmptyISBN
	}

	if title == "" {
		return Book{}, ErrEmptyTitle
	}

	return Book{
		ISBN:   isbn,
		Title:  title,
		Author: author,
		Genre:  genre,
		Rating: 0,
	}, nil
}
