package cli

import (
	"fmt"
	"io"
	"strings"

	"library-system/library"
)

func (a *app) addBook(w io.Writer, title, genreName string, available bool) error {
	genre, err := library.ParseGenre(genreName)
	if err != nil {
		return err
	}
	id, err := a.mgr.AddBook(title, genre, available)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Added book ID %d: '%s' (%s)\n", id, title, genre)
	return nil
}

// listBooks prints every book, or only one genre when genreName is set.
func (a *app) listBooks(w io.Writer, genreName string) error {
	var (
		books []*library.Book
		err   error
	)
	if genreName == "" {
		books, err = a.mgr.GetAllBooks()
	} else {
		var genre library.Genre
		if genre, err = library.ParseGenre(genreName); err != nil {
			return err
		}
		books, err = a.mgr.BooksByGenre(genre)
	}
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Fprintln(w, "No books in library.")
		return nil
	}

	fmt.Fprintf(w, "%-5s %-30s %-12s %-10s %-20s %s\n", "ID", "Title", "Genre", "Available", "Borrower", "Reservation Queue")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, b := range books {
		availStr := "Yes"
		if !b.Available {
			availStr = "No"
		}
		fmt.Fprintf(w, "%-5d %-30s %-12s %-10s %-20s %s\n",
			b.ID,
			library.Truncate(b.Title, 30),
			b.Genre,
			availStr,
			library.Truncate(a.borrowerInfo(b), 20),
			a.queueInfo(b.ID))
	}
	return nil
}

func (a *app) borrowerInfo(b *library.Book) string {
	if b.BorrowerID == 0 {
		return "None"
	}
	if member, err := a.mgr.GetMember(b.BorrowerID); err == nil {
		return fmt.Sprintf("%s (ID: %d)", member.Name, member.ID)
	}
	return fmt.Sprintf("ID: %d", b.BorrowerID)
}

func (a *app) queueInfo(bookID int64) string {
	reservations, err := a.mgr.GetReservations(bookID)
	if err != nil || len(reservations) == 0 {
		return "None"
	}
	queue := make([]string, 0, len(reservations))
	for i, member := range reservations {
		queue = append(queue, fmt.Sprintf("%d. %s (ID: %d)", i+1, member.Name, member.ID))
	}
	return strings.Join(queue, ", ")
}

func (a *app) searchBooks(w io.Writer, query string) error {
	books, err := a.mgr.SearchBooks(query)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Fprintf(w, "No books found matching '%s'.\n", query)
		return nil
	}

	fmt.Fprintf(w, "Found %d book(s) matching '%s':\n", len(books), query)
	fmt.Fprintf(w, "%-5s %-30s %-12s %-10s %-25s\n", "ID", "Title", "Genre", "Available", "Borrower")
	fmt.Fprintln(w, strings.Repeat("-", 85))
	for _, book := range books {
		borrowerName := ""
		if book.BorrowerID > 0 {
			if member, err := a.mgr.GetMember(book.BorrowerID); err == nil {
				borrowerName = member.Name
			}
		}
		fmt.Fprintln(w, library.PrettyBook(book, borrowerName))
	}
	return nil
}

// addMember registers a member. levelText is kept verbatim when it does not
// name a tier; the fee lookup reports it later.
func (a *app) addMember(w io.Writer, name, levelText, password string) error {
	id, err := a.mgr.AddMember(name, library.LevelFromText(levelText), password)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Added member '%s' with ID %d\n", name, id)
	return nil
}

func (a *app) listMembers(w io.Writer) error {
	members, err := a.mgr.GetAllMembers()
	if err != nil {
		return err
	}
	if len(members) == 0 {
		fmt.Fprintln(w, "No members registered.")
		return nil
	}

	fmt.Fprintf(w, "%-5s %-30s %-20s %-15s\n", "ID", "Name", "Membership", "Password Set")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, member := range members {
		passwordStatus := "No"
		if member.PasswordHash != "" {
			passwordStatus = "Yes"
		}
		fmt.Fprintf(w, "%-5d %-30s %-20v %-15s\n", member.ID, library.Truncate(member.Name, 30), member.Level, passwordStatus)
	}
	return nil
}

func (a *app) memberFee(w io.Writer, memberID int64) error {
	member, err := a.mgr.GetMember(memberID)
	if err != nil {
		return err
	}
	fee, err := a.mgr.MemberFee(memberID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Membership fee for %s: %d\n", member.Name, fee)
	return nil
}

func (a *app) resetPassword(w io.Writer, memberID int64, password string) error {
	member, err := a.mgr.GetMember(memberID)
	if err != nil {
		return err
	}
	if err := a.mgr.ResetMemberPassword(memberID, password); err != nil {
		return err
	}
	fmt.Fprintf(w, "Password successfully reset for %s (ID: %d)\n", member.Name, memberID)
	return nil
}

// authenticate checks a member's password, prompting for it when empty.
func (a *app) authenticate(p *prompter, memberID int64, password string) error {
	if password == "" {
		var err error
		if password, err = p.password("Enter your password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	if err := a.mgr.AuthenticateMember(memberID, password); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	return nil
}

func (a *app) checkout(w io.Writer, bookID, memberID int64) error {
	if err := a.mgr.CheckoutBook(bookID, memberID); err != nil {
		return err
	}
	member, _ := a.mgr.GetMember(memberID)
	book, _ := a.mgr.GetBook(bookID)
	fmt.Fprintf(w, "Book '%s' checked out to %s\n", book.Title, member.Name)
	return nil
}

func (a *app) returnBook(w io.Writer, bookID int64, late bool) error {
	returnedBy, assignedTo, err := a.mgr.ReturnBookWithDetails(bookID, late)
	if err != nil {
		return err
	}

	book, _ := a.mgr.GetBook(bookID)
	if returnedBy > 0 {
		if member, err := a.mgr.GetMember(returnedBy); err == nil {
			fmt.Fprintf(w, "Book '%s' returned by %s\n", book.Title, member.Name)
		}
	} else {
		fmt.Fprintf(w, "Book '%s' was not checked out\n", book.Title)
	}

	if assignedTo > 0 {
		assigned, _ := a.mgr.GetMember(assignedTo)
		fmt.Fprintf(w, "Book automatically assigned to %s (next in reservation queue)\n", assigned.Name)
	} else {
		fmt.Fprintln(w, "Book is now available for checkout")
	}
	return nil
}

func (a *app) reserve(w io.Writer, bookID, memberID int64) error {
	if err := a.mgr.ReserveBook(bookID, memberID); err != nil {
		return err
	}
	book, _ := a.mgr.GetBook(bookID)
	member, _ := a.mgr.GetMember(memberID)
	if book.BorrowerID == memberID {
		fmt.Fprintf(w, "Book '%s' was available and is now checked out to %s\n", book.Title, member.Name)
		return nil
	}
	reservations, _ := a.mgr.GetReservations(bookID)
	fmt.Fprintf(w, "Reserved '%s' for %s (position %d in queue)\n", book.Title, member.Name, len(reservations))
	return nil
}

func (a *app) listReservations(w io.Writer, bookID int64) error {
	book, err := a.mgr.GetBook(bookID)
	if err != nil {
		return err
	}
	reservations, err := a.mgr.GetReservations(bookID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Reservations for '%s':\n", book.Title)
	if len(reservations) == 0 {
		fmt.Fprintln(w, "No reservations for this book.")
		return nil
	}
	fmt.Fprintf(w, "%-10s %-5s %-30s\n", "Position", "ID", "Name")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for i, member := range reservations {
		fmt.Fprintf(w, "%-10d %-5d %-30s\n", i+1, member.ID, member.Name)
	}
	return nil
}

func (a *app) listAllReservations(w io.Writer) error {
	books, err := a.mgr.GetAllBooks()
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Fprintln(w, "No books in the library.")
		return nil
	}

	fmt.Fprintln(w, "Reservation Status for All Books:")
	fmt.Fprintf(w, "%-5s %-30s %-12s %-30s %s\n", "ID", "Title", "Status", "Current Borrower", "Reservations")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	reserved := 0
	for _, book := range books {
		status := "Available"
		if !book.Available {
			status = "Checked Out"
		}
		queue := a.queueInfo(book.ID)
		if queue != "None" {
			reserved++
		}
		fmt.Fprintf(w, "%-5d %-30s %-12s %-30s %s\n",
			book.ID,
			library.Truncate(book.Title, 30),
			status,
			library.Truncate(a.borrowerInfo(book), 30),
			queue)
	}

	if reserved == 0 {
		fmt.Fprintln(w, "\nNo active reservations in the system.")
	} else {
		fmt.Fprintf(w, "\nTotal books: %d | Books with reservations: %d\n", len(books), reserved)
	}
	return nil
}

func (a *app) cancelReservation(w io.Writer, bookID, memberID int64) error {
	if err := a.mgr.CancelReservation(bookID, memberID); err != nil {
		return err
	}
	member, _ := a.mgr.GetMember(memberID)
	book, _ := a.mgr.GetBook(bookID)
	fmt.Fprintf(w, "Reservation for '%s' cancelled for %s\n", book.Title, member.Name)
	return nil
}
