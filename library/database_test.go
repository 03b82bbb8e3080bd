package library

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInMemoryDatabase(t *testing.T) {
	db, err := NewDatabase(MemoryPath)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	defer db.Close()

	id, err := db.AddBook("1984", Fiction, true)
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	b, err := db.GetBook(id)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if b.Title != "1984" || b.Genre != Fiction || !b.Available {
		t.Fatalf("unexpected book %+v", b)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.db")
	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	id, _ := db.AddBook("Sapiens", History, false)
	db.Close()

	db, err = NewDatabase(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	b, err := db.GetBook(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.Available {
		t.Fatalf("availability not persisted")
	}
}

func TestSearchAndGenre(t *testing.T) {
	db := tempDB(t)
	db.AddBook("A Brief History of Time", Science, true)
	db.AddBook("The History of Rome", History, true)
	db.AddBook("Steve Jobs", Biography, true)
	db.AddBook("100%_Pure", Fiction, true)

	res, err := db.SearchBooks("history")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("want 2 results, got %d", len(res))
	}

	res, _ = db.SearchBooks("%_")
	if len(res) != 1 || res[0].Title != "100%_Pure" {
		t.Fatalf("wildcards must match literally, got %v", res)
	}

	res, _ = db.SearchBooks("   ")
	if len(res) != 0 {
		t.Fatalf("blank query should return nothing")
	}

	bios, err := db.BooksByGenre(Biography)
	if err != nil {
		t.Fatalf("by genre: %v", err)
	}
	if len(bios) != 1 || bios[0].Title != "Steve Jobs" {
		t.Fatalf("unexpected genre result %v", bios)
	}
}

func TestMemberLevelStorage(t *testing.T) {
	db := tempDB(t)
	alice, _ := db.AddMember("Alice", Premium, "hash")
	eve, _ := db.AddMember("Eve", "INVALID_LEVEL", "hash")

	m, err := db.GetMember(alice)
	if err != nil {
		t.Fatalf("get alice: %v", err)
	}
	if fee, err := m.Fee(); err != nil || fee != 200 {
		t.Fatalf("alice fee = %d, %v", fee, err)
	}

	m, err = db.GetMember(eve)
	if err != nil {
		t.Fatalf("get eve: %v", err)
	}
	if _, err := m.Fee(); !errors.Is(err, ErrInvalidMembership) {
		t.Fatalf("want invalid membership, got %v", err)
	}

	if _, err := db.GetMember(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestMemberLevelTextKeepsFeeDeferred(t *testing.T) {
	db := tempDB(t)

	// A tier name held as a string is not a MembershipLevel.
	eve := NewMember("Eve", "Premium")
	if _, err := eve.Fee(); !errors.Is(err, ErrInvalidMembership) {
		t.Fatalf("in memory: want invalid membership, got %v", err)
	}

	id, err := db.AddMember(eve.Name, eve.Level, "hash")
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	m, err := db.GetMember(id)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if m.Level != "Premium" {
		t.Fatalf("level should reload as text, got %#v", m.Level)
	}
	if _, err := m.Fee(); !errors.Is(err, ErrInvalidMembership) {
		t.Fatalf("after reload: want invalid membership, got %v", err)
	}

	// Out-of-range tiers keep their type and still fail.
	id, _ = db.AddMember("Zed", MembershipLevel(42), "hash")
	m, _ = db.GetMember(id)
	if m.Level != MembershipLevel(42) {
		t.Fatalf("level should reload as MembershipLevel(42), got %#v", m.Level)
	}
	if _, err := m.Fee(); !errors.Is(err, ErrInvalidMembership) {
		t.Fatalf("want invalid membership, got %v", err)
	}
}

func TestCheckoutFlow(t *testing.T) {
	db := tempDB(t)
	bookID, _ := db.AddBook("Book", Fiction, true)
	memberID, _ := db.AddMember("Alice", Basic, "hash")

	if err := db.CheckoutBook(bookID, memberID); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	book, _ := db.GetBook(bookID)
	if book.Available || book.BorrowerID != memberID {
		t.Fatalf("expected borrower %d, got %+v", memberID, book)
	}

	var notAvailable *BookNotAvailableError
	if err := db.CheckoutBook(bookID, memberID); !errors.As(err, &notAvailable) {
		t.Fatalf("want BookNotAvailableError, got %v", err)
	}
	if notAvailable.Title != "Book" {
		t.Fatalf("error should name the title, got %q", notAvailable.Title)
	}

	retID, err := db.ReturnBook(bookID, false)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if retID != memberID {
		t.Fatalf("wrong returned id %d", retID)
	}
	book, _ = db.GetBook(bookID)
	if !book.Available || book.BorrowerID != 0 {
		t.Fatalf("book should be available after return")
	}
}

func TestCheckoutUnavailableAtCreation(t *testing.T) {
	db := tempDB(t)
	bookID, _ := db.AddBook("1984", Fiction, false)
	memberID, _ := db.AddMember("Alice", Basic, "hash")

	if err := db.CheckoutBook(bookID, memberID); !errors.Is(err, ErrBookNotAvailable) {
		t.Fatalf("want BookNotAvailableError, got %v", err)
	}
	if err := db.CheckoutBook(999, memberID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want not found book, got %v", err)
	}
	avail, _ := db.AddBook("Dune", Fiction, true)
	if err := db.CheckoutBook(avail, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want not found member, got %v", err)
	}
}

func TestLateReturnLeavesCheckoutOpen(t *testing.T) {
	db := tempDB(t)
	bookID, _ := db.AddBook("Late Book", Fiction, true)
	memberID, _ := db.AddMember("Alice", Gold, "hash")
	db.CheckoutBook(bookID, memberID)

	_, err := db.ReturnBook(bookID, true)
	var late *LateReturnError
	if !errors.As(err, &late) {
		t.Fatalf("want LateReturnError, got %v", err)
	}
	if late.Title != "Late Book" {
		t.Fatalf("error should name the title, got %q", late.Title)
	}
	book, _ := db.GetBook(bookID)
	if book.Available || book.BorrowerID != memberID {
		t.Fatalf("late return must not change the book: %+v", book)
	}

	// An on-time return afterwards still succeeds.
	retID, err := db.ReturnBook(bookID, false)
	if err != nil || retID != memberID {
		t.Fatalf("return after late notice: %d, %v", retID, err)
	}
}

func TestReturnAvailableBookIsIdempotent(t *testing.T) {
	db := tempDB(t)
	bookID, _ := db.AddBook("Shelved", History, true)

	retID, err := db.ReturnBook(bookID, false)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if retID != 0 {
		t.Fatalf("nobody had the book, got %d", retID)
	}

	// A book stored as unavailable with no checkout becomes available.
	outID, _ := db.AddBook("Lost", History, false)
	if _, err := db.ReturnBook(outID, false); err != nil {
		t.Fatalf("return: %v", err)
	}
	book, _ := db.GetBook(outID)
	if !book.Available {
		t.Fatalf("book should be available")
	}

	if _, err := db.ReturnBook(outID, true); !errors.Is(err, ErrLateReturn) {
		t.Fatalf("late return always fails, got %v", err)
	}
}

func TestReturnWithoutCheckoutServesQueue(t *testing.T) {
	db := tempDB(t)
	bookID, _ := db.AddBook("Steve Jobs", Biography, false)
	bob, _ := db.AddMember("Bob", Basic, "hash")
	carol, _ := db.AddMember("Carol", Gold, "hash")

	if err := db.ReserveBook(bookID, bob); err != nil {
		t.Fatalf("reserve bob: %v", err)
	}
	if err := db.ReserveBook(bookID, carol); err != nil {
		t.Fatalf("reserve carol: %v", err)
	}

	retID, err := db.ReturnBook(bookID, false)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if retID != 0 {
		t.Fatalf("nobody had the book, got %d", retID)
	}

	book, _ := db.GetBook(bookID)
	if book.Available || book.BorrowerID != bob {
		t.Fatalf("book should go to bob: available=%v borrower=%d", book.Available, book.BorrowerID)
	}
	queue, _ := db.GetReservations(bookID)
	if len(queue) != 1 || queue[0].ID != carol {
		t.Fatalf("carol should be left in the queue, got %v", queue)
	}

	// Bob's return now hands the book to Carol.
	retID, err = db.ReturnBook(bookID, false)
	if err != nil || retID != bob {
		t.Fatalf("return by bob: %d, %v", retID, err)
	}
	book, _ = db.GetBook(bookID)
	if book.BorrowerID != carol {
		t.Fatalf("book should go to carol, got %d", book.BorrowerID)
	}
}

// TestReservationSystem covers common reservation scenarios.
func TestReservationSystem(t *testing.T) {
	db := tempDB(t)

	bookID, err := db.AddBook("Test Book", Science, true)
	if err != nil {
		t.Fatalf("add book: %v", err)
	}

	member1ID, err := db.AddMember("Alice", Basic, "hash")
	if err != nil {
		t.Fatalf("add member 1: %v", err)
	}

	member2ID, err := db.AddMember("Bob", Premium, "hash")
	if err != nil {
		t.Fatalf("add member 2: %v", err)
	}

	member3ID, err := db.AddMember("Charlie", Gold, "hash")
	if err != nil {
		t.Fatalf("add member 3: %v", err)
	}

	// Reserve when available – should checkout immediately
	if err := db.ReserveBook(bookID, member1ID); err != nil {
		t.Fatalf("reserve available: %v", err)
	}
	book, _ := db.GetBook(bookID)
	if book.Available || book.BorrowerID != member1ID {
		t.Fatalf("expected borrower %d", member1ID)
	}

	if err := db.ReserveBook(bookID, member2ID); err != nil {
		t.Fatalf("reserve queue: %v", err)
	}
	if err := db.ReserveBook(bookID, member3ID); err != nil {
		t.Fatalf("reserve queue2: %v", err)
	}

	res, _ := db.GetReservations(bookID)
	if len(res) != 2 || res[0].ID != member2ID || res[1].ID != member3ID {
		t.Fatalf("queue order incorrect")
	}

	// A late return does not advance the queue.
	if _, err := db.ReturnBook(bookID, true); !errors.Is(err, ErrLateReturn) {
		t.Fatalf("want late return error, got %v", err)
	}
	res, _ = db.GetReservations(bookID)
	if len(res) != 2 {
		t.Fatalf("queue should be untouched after a late return")
	}

	// Return – assign to member2
	retID, _ := db.ReturnBook(bookID, false)
	if retID != member1ID {
		t.Fatalf("wrong returned id")
	}
	book, _ = db.GetBook(bookID)
	if book.BorrowerID != member2ID {
		t.Fatalf("expected borrower %d", member2ID)
	}

	// Return again – assign to member3
	_, _ = db.ReturnBook(bookID, false)
	book, _ = db.GetBook(bookID)
	if book.BorrowerID != member3ID {
		t.Fatalf("expected borrower %d", member3ID)
	}

	// Final return – book available
	_, _ = db.ReturnBook(bookID, false)
	book, _ = db.GetBook(bookID)
	if !book.Available {
		t.Fatalf("book should be available")
	}
}

func TestReservationEdgeCases(t *testing.T) {
	db := tempDB(t)

	bookID, _ := db.AddBook("Edge Book", Fiction, true)
	memberID, _ := db.AddMember("Alice", Basic, "hash")

	if err := db.CheckoutBook(bookID, memberID); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	err := db.ReserveBook(bookID, memberID)
	if err == nil {
		t.Fatalf("expected error when reserving book already checked out by same member")
	}
	if !strings.Contains(err.Error(), "you can't reserve this book because you have already checked it out") {
		t.Fatalf("expected specific error message, got: %v", err)
	}
	_, _ = db.ReturnBook(bookID, false)

	otherMemberID, _ := db.AddMember("Bob", Basic, "hash")
	if err := db.CheckoutBook(bookID, otherMemberID); err != nil {
		t.Fatalf("checkout by other member failed: %v", err)
	}
	if err := db.ReserveBook(bookID, memberID); err != nil {
		t.Fatalf("first reservation should succeed: %v", err)
	}
	err = db.ReserveBook(bookID, memberID)
	if err == nil {
		t.Fatalf("expected duplicate reservation error")
	}
	if !strings.Contains(err.Error(), "you already have a reservation for this book") {
		t.Fatalf("expected specific error message, got: %v", err)
	}

	if err := db.ReserveBook(99999, memberID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected non-existent book error, got: %v", err)
	}
	if err := db.ReserveBook(bookID, 99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected non-existent member error, got: %v", err)
	}
}

func TestReserveAgainAfterFulfilment(t *testing.T) {
	db := tempDB(t)
	bookID, _ := db.AddBook("Popular", Fiction, true)
	alice, _ := db.AddMember("Alice", Basic, "hash")
	bob, _ := db.AddMember("Bob", Basic, "hash")

	db.CheckoutBook(bookID, alice)
	db.ReserveBook(bookID, bob)
	db.ReturnBook(bookID, false) // Bob now has it
	db.ReturnBook(bookID, false) // available again

	db.CheckoutBook(bookID, alice)
	if err := db.ReserveBook(bookID, bob); err != nil {
		t.Fatalf("second reservation by the same member: %v", err)
	}
	res, _ := db.GetReservations(bookID)
	if len(res) != 1 || res[0].ID != bob {
		t.Fatalf("expected Bob queued again")
	}
}

func TestCancelReservation(t *testing.T) {
	db := tempDB(t)
	bookID, _ := db.AddBook("Cancel Book", Fiction, true)
	mem1, _ := db.AddMember("Alice", Basic, "hash")
	mem2, _ := db.AddMember("Bob", Basic, "hash")

	db.CheckoutBook(bookID, mem1)
	db.ReserveBook(bookID, mem2)

	if err := db.CancelReservation(bookID, mem2); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := db.CancelReservation(bookID, mem2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected error cancelling non-existent reservation, got %v", err)
	}
}

func TestGetMemberReservations(t *testing.T) {
	db := tempDB(t)
	b1, _ := db.AddBook("B1", Fiction, true)
	b2, _ := db.AddBook("B2", History, true)
	mem1, _ := db.AddMember("Alice", Basic, "hash")
	mem2, _ := db.AddMember("Bob", Basic, "hash")

	db.CheckoutBook(b1, mem2)
	db.CheckoutBook(b2, mem2)
	db.ReserveBook(b1, mem1)
	db.ReserveBook(b2, mem1)

	books, _ := db.GetMemberReservations(mem1)
	if len(books) != 2 {
		t.Fatalf("want 2 reservations, got %d", len(books))
	}
	if books[1].Genre != History {
		t.Fatalf("genre not loaded: %+v", books[1])
	}
}
