package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func printShellHelp(w io.Writer) {
	fmt.Fprintln(w, "Available commands:")
	fmt.Fprintln(w, "  Books: add book, list books, search book")
	fmt.Fprintln(w, "  Members: add member, list members, member fee, reset password")
	fmt.Fprintln(w, "  Circulation: checkout, return, reserve, list reservations, cancel reservation")
	fmt.Fprintln(w, "  System: help, exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tips:")
	fmt.Fprintln(w, "  • For 'list reservations': Enter a Book ID for specific book, or press Enter to see all books")
	fmt.Fprintln(w, "  • For 'return': answer 'y' to 'Late?' to record a late return; the book stays checked out")
}

// runShell reads commands line by line until "exit" or end of input.
func (a *app) runShell(cmd *cobra.Command) error {
	p := newPrompter(cmd)
	w := p.out

	fmt.Fprintln(w, "Welcome to the Library Management System!")
	printShellHelp(w)

	handlers := map[string]func(*prompter) error{
		"add book":           a.shellAddBook,
		"add member":         a.shellAddMember,
		"list books":         func(p *prompter) error { return a.listBooks(p.out, "") },
		"list members":       func(p *prompter) error { return a.listMembers(p.out) },
		"search book":        a.shellSearchBooks,
		"member fee":         a.shellMemberFee,
		"reset password":     a.shellResetPassword,
		"checkout":           a.shellCheckout,
		"return":             a.shellReturn,
		"reserve":            a.shellReserve,
		"list reservations":  a.shellListReservations,
		"cancel reservation": a.shellCancelReservation,
	}

	for {
		line, ok := p.line("\n> ")
		if !ok {
			fmt.Fprintln(w)
			return nil
		}

		switch line {
		case "":
			continue
		case "exit":
			fmt.Fprintln(w, "Goodbye!")
			return nil
		case "help":
			printShellHelp(w)
			continue
		}

		handler, found := handlers[line]
		if !found {
			fmt.Fprintln(w, "Unknown command. Type one of the available commands listed above.")
			continue
		}
		if err := handler(p); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	}
}

func (a *app) shellAddBook(p *prompter) error {
	title, ok := p.line("Title: ")
	if !ok {
		return nil
	}
	genre, ok := p.line("Genre (Fiction, Non-Fiction, Science, History, Biography): ")
	if !ok {
		return nil
	}
	avail, ok := p.line("Available now? [Y/n]: ")
	if !ok {
		return nil
	}
	return a.addBook(p.out, title, genre, !strings.EqualFold(avail, "n") && !strings.EqualFold(avail, "no"))
}

func (a *app) shellAddMember(p *prompter) error {
	name, ok := p.line("Name: ")
	if !ok {
		return nil
	}
	level, ok := p.line("Membership level (Basic, Premium, Gold): ")
	if !ok {
		return nil
	}
	password, err := p.password(fmt.Sprintf("Enter password for %s: ", name))
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	return a.addMember(p.out, name, level, password)
}

func (a *app) shellSearchBooks(p *prompter) error {
	query, ok := p.line("Query: ")
	if !ok {
		return nil
	}
	return a.searchBooks(p.out, query)
}

func (a *app) shellMemberFee(p *prompter) error {
	memberID, ok, err := p.id("Member ID: ")
	if !ok || err != nil {
		return err
	}
	return a.memberFee(p.out, memberID)
}

func (a *app) shellResetPassword(p *prompter) error {
	memberID, ok, err := p.id("Member ID: ")
	if !ok || err != nil {
		return err
	}
	member, err := a.mgr.GetMember(memberID)
	if err != nil {
		return err
	}
	password, err := p.password(fmt.Sprintf("Enter new password for %s (ID: %d): ", member.Name, memberID))
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	return a.resetPassword(p.out, memberID, password)
}

// bookAndMember prompts for a book and a member and authenticates the member.
func (a *app) bookAndMember(p *prompter) (bookID, memberID int64, ok bool, err error) {
	if bookID, ok, err = p.id("Book ID: "); !ok || err != nil {
		return 0, 0, ok, err
	}
	if memberID, ok, err = p.id("Member ID: "); !ok || err != nil {
		return 0, 0, ok, err
	}
	if err := a.authenticate(p, memberID, ""); err != nil {
		return 0, 0, true, err
	}
	return bookID, memberID, true, nil
}

func (a *app) shellCheckout(p *prompter) error {
	bookID, memberID, ok, err := a.bookAndMember(p)
	if !ok || err != nil {
		return err
	}
	return a.checkout(p.out, bookID, memberID)
}

func (a *app) shellReserve(p *prompter) error {
	bookID, memberID, ok, err := a.bookAndMember(p)
	if !ok || err != nil {
		return err
	}
	return a.reserve(p.out, bookID, memberID)
}

func (a *app) shellCancelReservation(p *prompter) error {
	bookID, memberID, ok, err := a.bookAndMember(p)
	if !ok || err != nil {
		return err
	}
	return a.cancelReservation(p.out, bookID, memberID)
}

func (a *app) shellReturn(p *prompter) error {
	bookID, ok, err := p.id("Book ID: ")
	if !ok || err != nil {
		return err
	}
	late, ok := p.line("Late? [y/N]: ")
	if !ok {
		return nil
	}
	return a.returnBook(p.out, bookID, strings.EqualFold(late, "y") || strings.EqualFold(late, "yes"))
}

func (a *app) shellListReservations(p *prompter) error {
	s, ok := p.line("Book ID (press Enter for all books): ")
	if !ok {
		return nil
	}
	if s == "" {
		return a.listAllReservations(p.out)
	}
	bookID, err := parseID(s)
	if err != nil {
		return err
	}
	return a.listReservations(p.out, bookID)
}
