package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database that lives as long as the
// Database value.
const MemoryPath = ":memory:"

// Database provides high-level helpers around a SQLite connection.
type Database struct {
	db *sql.DB

	addBookStmt   *sql.Stmt
	addMemberStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements. An empty path or MemoryPath
// keeps everything in memory.
func NewDatabase(dbPath string) (*Database, error) {
	dsn := "file::memory:?_foreign_keys=1"
	if dbPath != "" && dbPath != MemoryPath {
		// Ensure directory exists so first-run succeeds.
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: an in-memory database is private to its connection, and
	// circulation is single-writer anyway.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addBookStmt != nil {
		d.addBookStmt.Close()
	}
	if d.addMemberStmt != nil {
		d.addMemberStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS members (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            membership_level TEXT NOT NULL,
            password_hash TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            genre INTEGER NOT NULL,
            available BOOLEAN NOT NULL DEFAULT 1,
            borrower_id INTEGER REFERENCES members(id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_books_genre ON books(genre);`,
		`CREATE TABLE IF NOT EXISTS checkouts (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id INTEGER NOT NULL REFERENCES books(id),
            member_id INTEGER NOT NULL REFERENCES members(id),
            checkout_time DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            return_time DATETIME
        );`,
		`CREATE TABLE IF NOT EXISTS reservations (
		    id INTEGER PRIMARY KEY AUTOINCREMENT,
		    book_id INTEGER NOT NULL REFERENCES books(id),
		    member_id INTEGER NOT NULL REFERENCES members(id),
		    reservation_time DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		    fulfilled_time DATETIME,
		    UNIQUE(book_id, member_id)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Prepare(`INSERT INTO books(title,genre,available) VALUES(?,?,?)`); err != nil {
		return err
	}
	if d.addMemberStmt, err = d.db.Prepare(`INSERT INTO members(name,membership_level,password_hash) VALUES(?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

const bookColumns = `b.id, b.title, b.genre, b.available, COALESCE(b.borrower_id,0)`

func scanBook(r rowScanner) (*Book, error) {
	var (
		b     Book
		genre int64
	)
	if err := r.Scan(&b.ID, &b.Title, &genre, &b.Available, &b.BorrowerID); err != nil {
		return nil, err
	}
	b.Genre = Genre(genre)
	return &b, nil
}

func scanBooks(rows *sql.Rows) ([]*Book, error) {
	defer rows.Close()
	var books []*Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func scanMember(r rowScanner) (*Member, error) {
	var (
		m     Member
		level string
	)
	if err := r.Scan(&m.ID, &m.Name, &level, &m.PasswordHash); err != nil {
		return nil, err
	}
	m.Level = decodeLevel(level)
	return &m, nil
}

func loadBook(q queryer, id int64) (*Book, error) {
	b, err := scanBook(q.QueryRow(`SELECT `+bookColumns+` FROM books b WHERE b.id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	return b, err
}

func memberExists(q queryer, id int64) error {
	var exists bool
	if err := q.QueryRow(`SELECT EXISTS(SELECT 1 FROM members WHERE id=?)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("member %d: %w", id, ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// CRUD helpers
// ---------------------------------------------------------------------------

// AddMember stores a member. The level is encoded with its type so that a
// reload gives Member.Fee the same value it would have seen in memory.
func (d *Database) AddMember(name string, level any, passwordHash string) (int64, error) {
	res, err := d.addMemberStmt.Exec(name, encodeLevel(level), passwordHash)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AddBook inserts a book with its initial availability.
func (d *Database) AddBook(title string, genre Genre, available bool) (int64, error) {
	res, err := d.addBookStmt.Exec(title, int64(genre), available)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *Database) GetBook(id int64) (*Book, error) {
	return loadBook(d.db, id)
}

// GetAllBooks returns every book ordered by id.
func (d *Database) GetAllBooks() ([]*Book, error) {
	rows, err := d.db.Query(`SELECT ` + bookColumns + ` FROM books b ORDER BY b.id`)
	if err != nil {
		return nil, err
	}
	return scanBooks(rows)
}

// SearchBooks matches q as a case-insensitive substring of the title.
func (d *Database) SearchBooks(q string) ([]*Book, error) {
	if strings.TrimSpace(q) == "" {
		return []*Book{}, nil
	}
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(q))
	rows, err := d.db.Query(`
        SELECT `+bookColumns+`
        FROM books b
        WHERE b.title LIKE '%' || ? || '%' ESCAPE '\'
        ORDER BY b.id;`, escaped)
	if err != nil {
		return nil, err
	}
	return scanBooks(rows)
}

// BooksByGenre returns the books of one genre ordered by id.
func (d *Database) BooksByGenre(genre Genre) ([]*Book, error) {
	rows, err := d.db.Query(`SELECT `+bookColumns+` FROM books b WHERE b.genre=? ORDER BY b.id`, int64(genre))
	if err != nil {
		return nil, err
	}
	return scanBooks(rows)
}

// CheckoutBook lends the book to a member. It fails with BookNotAvailableError
// when the book is already out.
func (d *Database) CheckoutBook(bookID, memberID int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	book, err := loadBook(tx, bookID)
	if err != nil {
		return err
	}
	if err := memberExists(tx, memberID); err != nil {
		return err
	}
	if err := book.Borrow(); err != nil {
		return err
	}
	if err := lendTx(tx, book.ID, memberID); err != nil {
		return err
	}
	return tx.Commit()
}

// lendTx records a checkout for a book that has just been borrowed.
func lendTx(tx *sql.Tx, bookID, memberID int64) error {
	if _, err := tx.Exec(`INSERT INTO checkouts(book_id,member_id) VALUES(?,?)`, bookID, memberID); err != nil {
		return err
	}
	_, err := tx.Exec(`UPDATE books SET available=0, borrower_id=? WHERE id=?`, memberID, bookID)
	return err
}

// ReserveBook places a reservation for a book by a member, or checks it out immediately if available.
//
// The function validates that:
// - both book and member exist
// - the member has no active reservation for this book
// - the member does not already have the book checked out
//
// An available book is borrowed on the spot; otherwise the member joins the
// FIFO queue for it.
func (d *Database) ReserveBook(bookID, memberID int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	book, err := loadBook(tx, bookID)
	if err != nil {
		return err
	}
	if err := memberExists(tx, memberID); err != nil {
		return err
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM reservations WHERE book_id=? AND member_id=? AND fulfilled_time IS NULL)`, bookID, memberID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("you already have a reservation for this book")
	}

	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM checkouts WHERE book_id=? AND member_id=? AND return_time IS NULL)`, bookID, memberID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("you can't reserve this book because you have already checked it out")
	}

	if book.Available {
		if err := book.Borrow(); err != nil {
			return err
		}
		if err := lendTx(tx, book.ID, memberID); err != nil {
			return err
		}
	} else {
		// Fulfilled reservations keep their row; reopen it instead of inserting.
		if _, err := tx.Exec(`INSERT INTO reservations(book_id,member_id) VALUES(?,?)
            ON CONFLICT(book_id,member_id) DO UPDATE SET reservation_time=CURRENT_TIMESTAMP, fulfilled_time=NULL`, bookID, memberID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReturnBook hands a book back and returns the id of the member who had it.
//
// A late return fails with LateReturnError and writes nothing: the checkout
// stays open. Otherwise any open checkout is closed (the returned member id
// is 0 when there was none) and the book is lent to the oldest active
// reservation, or made available when the queue is empty.
func (d *Database) ReturnBook(bookID int64, late bool) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	book, err := loadBook(tx, bookID)
	if err != nil {
		return 0, err
	}
	if err := book.ReturnBook(late); err != nil {
		return 0, err
	}

	var chkID, memberID int64
	err = tx.QueryRow(`SELECT id, member_id FROM checkouts WHERE book_id=? AND return_time IS NULL`, bookID).
		Scan(&chkID, &memberID)
	switch {
	case err == nil:
		if _, err := tx.Exec(`UPDATE checkouts SET return_time=? WHERE id=?`, time.Now(), chkID); err != nil {
			return 0, err
		}
	case errors.Is(err, sql.ErrNoRows):
		// Not checked out; the queue is still served.
	default:
		return 0, err
	}

	if err := handOffTx(tx, book); err != nil {
		return 0, err
	}
	return memberID, tx.Commit()
}

// handOffTx lends a returned book to the oldest active reservation, or
// shelves it when nobody is waiting.
func handOffTx(tx *sql.Tx, book *Book) error {
	var reservationID, nextMemberID int64
	err := tx.QueryRow(`SELECT id, member_id FROM reservations WHERE book_id=? AND fulfilled_time IS NULL ORDER BY reservation_time ASC, id ASC LIMIT 1`, book.ID).
		Scan(&reservationID, &nextMemberID)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = tx.Exec(`UPDATE books SET available=1, borrower_id=NULL WHERE id=?`, book.ID)
		return err
	}
	if err != nil {
		return err
	}

	if err := book.Borrow(); err != nil {
		return err
	}
	if err := lendTx(tx, book.ID, nextMemberID); err != nil {
		return err
	}
	_, err = tx.Exec(`UPDATE reservations SET fulfilled_time=? WHERE id=?`, time.Now(), reservationID)
	return err
}

// GetMember fetches a single member.
func (d *Database) GetMember(id int64) (*Member, error) {
	m, err := scanMember(d.db.QueryRow(`SELECT id,name,membership_level,password_hash FROM members WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %d: %w", id, ErrNotFound)
	}
	return m, err
}

// UpdateMemberPassword replaces a member's password hash.
func (d *Database) UpdateMemberPassword(id int64, passwordHash string) error {
	res, err := d.db.Exec(`UPDATE members SET password_hash=? WHERE id=?`, passwordHash, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("member %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetAllMembers returns all members.
func (d *Database) GetAllMembers() ([]*Member, error) {
	rows, err := d.db.Query(`SELECT id,name,membership_level,password_hash FROM members ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetReservations returns active reservations for a book ordered by time.
func (d *Database) GetReservations(bookID int64) ([]*Member, error) {
	rows, err := d.db.Query(`SELECT m.id, m.name, m.membership_level, m.password_hash FROM reservations r JOIN members m ON m.id = r.member_id WHERE r.book_id = ? AND r.fulfilled_time IS NULL ORDER BY r.reservation_time ASC, r.id ASC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetMemberReservations returns active reservations for a member.
func (d *Database) GetMemberReservations(memberID int64) ([]*Book, error) {
	rows, err := d.db.Query(`SELECT `+bookColumns+` FROM reservations r JOIN books b ON b.id = r.book_id WHERE r.member_id = ? AND r.fulfilled_time IS NULL ORDER BY r.reservation_time ASC, r.id ASC`, memberID)
	if err != nil {
		return nil, err
	}
	return scanBooks(rows)
}

// CancelReservation deletes an active reservation.
func (d *Database) CancelReservation(bookID, memberID int64) error {
	result, err := d.db.Exec(`DELETE FROM reservations WHERE book_id=? AND member_id=? AND fulfilled_time IS NULL`, bookID, memberID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("no active reservation for member %d on book %d: %w", memberID, bookID, ErrNotFound)
	}
	return nil
}
