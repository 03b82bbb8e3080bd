package library

// Book represents a title in the library and whether it can currently be
// borrowed. ID and BorrowerID are zero until the book is stored.
type Book struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Genre      Genre  `json:"genre"`
	Available  bool   `json:"available"`
	BorrowerID int64  `json:"borrower_id"`
}

// NewBook builds a book. Pass true for available unless the copy is already out.
func NewBook(title string, genre Genre, available bool) *Book {
	return &Book{Title: title, Genre: genre, Available: available}
}

// Borrow marks the book as borrowed.
func (b *Book) Borrow() error {
	if !b.Available {
		return &BookNotAvailableError{Title: b.Title}
	}
	b.Available = false
	return nil
}

// ReturnBook marks the book as available again. A late return fails with
// LateReturnError and leaves the book as it was.
func (b *Book) ReturnBook(late bool) error {
	if late {
		return &LateReturnError{Title: b.Title}
	}
	b.Available = true
	return nil
}

// Member represents a registered library member.
type Member struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// Level is expected to hold a MembershipLevel but accepts any value;
	// it is only checked by Fee.
	Level        any    `json:"membership_level"`
	PasswordHash string `json:"-"` // Don't serialize password hash
}

// NewMember stores name and level as given.
func NewMember(name string, level any) *Member {
	return &Member{Name: name, Level: level}
}

// Fee returns the annual fee for the member's level.
func (m *Member) Fee() (int, error) {
	l, ok := m.Level.(MembershipLevel)
	if !ok || !l.Valid() {
		return 0, &InvalidMembershipError{Level: m.Level}
	}
	return l.Fee(), nil
}
