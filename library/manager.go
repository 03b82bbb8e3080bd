package library

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a member password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Options tunes a LibraryManager. Zero values pick defaults.
type Options struct {
	Logger     *slog.Logger
	BcryptCost int
}

// LibraryManager is a thin façade over the Database, keeping CLI code simple.
type LibraryManager struct {
	db         *Database
	log        *slog.Logger
	bcryptCost int
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(dbPath string, opts Options) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &LibraryManager{db: db, log: opts.Logger, bcryptCost: opts.BcryptCost}, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// ------------------ Book helpers ------------------

func (lm *LibraryManager) AddBook(title string, genre Genre, available bool) (int64, error) {
	id, err := lm.db.AddBook(title, genre, available)
	if err != nil {
		return 0, fmt.Errorf("add book: %w", err)
	}
	lm.log.Debug("book added", "book_id", id, "title", title, "genre", genre.String())
	return id, nil
}

func (lm *LibraryManager) GetBook(id int64) (*Book, error) { return lm.db.GetBook(id) }
func (lm *LibraryManager) GetAllBooks() ([]*Book, error)   { return lm.db.GetAllBooks() }

func (lm *LibraryManager) SearchBooks(q string) ([]*Book, error) { return lm.db.SearchBooks(q) }

func (lm *LibraryManager) BooksByGenre(g Genre) ([]*Book, error) { return lm.db.BooksByGenre(g) }

// ------------------ Member helpers ------------------

// AddMember registers a member with a bcrypt-hashed password. The level is
// stored as given and only checked when the fee is requested.
func (lm *LibraryManager) AddMember(name string, level any, password string) (int64, error) {
	hash, err := lm.hashPassword(password)
	if err != nil {
		return 0, err
	}
	id, err := lm.db.AddMember(name, level, hash)
	if err != nil {
		return 0, fmt.Errorf("add member: %w", err)
	}
	lm.log.Debug("member added", "member_id", id, "name", name)
	return id, nil
}

// ResetMemberPassword replaces a member's password.
func (lm *LibraryManager) ResetMemberPassword(memberID int64, password string) error {
	hash, err := lm.hashPassword(password)
	if err != nil {
		return err
	}
	if err := lm.db.UpdateMemberPassword(memberID, hash); err != nil {
		return err
	}
	lm.log.Info("member password reset", "member_id", memberID)
	return nil
}

func (lm *LibraryManager) hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), lm.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (lm *LibraryManager) GetMember(id int64) (*Member, error) { return lm.db.GetMember(id) }
func (lm *LibraryManager) GetAllMembers() ([]*Member, error)   { return lm.db.GetAllMembers() }

// AuthenticateMember checks password against the member's stored hash.
func (lm *LibraryManager) AuthenticateMember(memberID int64, password string) error {
	m, err := lm.db.GetMember(memberID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		lm.log.Warn("authentication failed", "member_id", memberID)
		return ErrInvalidCredentials
	}
	return nil
}

// MemberFee returns the annual fee for a stored member.
func (lm *LibraryManager) MemberFee(memberID int64) (int, error) {
	m, err := lm.db.GetMember(memberID)
	if err != nil {
		return 0, err
	}
	return m.Fee()
}

// ------------------ Reservation helpers ------------------

func (lm *LibraryManager) ReserveBook(bookID, memberID int64) error {
	if err := lm.db.ReserveBook(bookID, memberID); err != nil {
		return err
	}
	lm.log.Info("reservation placed", "book_id", bookID, "member_id", memberID)
	return nil
}

func (lm *LibraryManager) GetReservations(bookID int64) ([]*Member, error) {
	return lm.db.GetReservations(bookID)
}

func (lm *LibraryManager) GetMemberReservations(memberID int64) ([]*Book, error) {
	return lm.db.GetMemberReservations(memberID)
}

func (lm *LibraryManager) CancelReservation(bookID, memberID int64) error {
	return lm.db.CancelReservation(bookID, memberID)
}

// ------------------ Circulation ------------------

func (lm *LibraryManager) CheckoutBook(bookID, memberID int64) error {
	if err := lm.db.CheckoutBook(bookID, memberID); err != nil {
		return err
	}
	lm.log.Info("book checked out", "book_id", bookID, "member_id", memberID)
	return nil
}

// ReturnBook returns the book and yields the member who had it.
func (lm *LibraryManager) ReturnBook(bookID int64, late bool) (int64, error) {
	memberID, err := lm.db.ReturnBook(bookID, late)
	if errors.Is(err, ErrLateReturn) {
		lm.log.Warn("late return refused", "book_id", bookID)
	}
	if err != nil {
		return 0, err
	}
	lm.log.Info("book returned", "book_id", bookID, "member_id", memberID)
	return memberID, nil
}

// ReturnBookWithDetails returns the book and reports who had it and who, if
// anyone, it was handed to from the reservation queue.
func (lm *LibraryManager) ReturnBookWithDetails(bookID int64, late bool) (returnedByMemberID int64, assignedToMemberID int64, err error) {
	returnedBy, err := lm.ReturnBook(bookID, late)
	if err != nil {
		return 0, 0, err
	}

	bookAfter, err := lm.db.GetBook(bookID)
	if err != nil {
		// The return is committed; only the hand-off report is lost.
		lm.log.Warn("reload after return failed", "book_id", bookID, "error", err)
		return returnedBy, 0, nil
	}
	if !bookAfter.Available {
		lm.log.Info("book assigned from reservation queue", "book_id", bookID, "member_id", bookAfter.BorrowerID)
		return returnedBy, bookAfter.BorrowerID, nil
	}
	return returnedBy, 0, nil
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b *Book, borrowerName string) string {
	return fmt.Sprintf("%-5d %-30s %-12s %-10t %-25s", b.ID, b.Title, b.Genre, b.Available, borrowerName)
}

// Truncate shortens s to at most maxLen characters for table columns,
// marking the cut with "...". It never splits a multi-byte character.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
