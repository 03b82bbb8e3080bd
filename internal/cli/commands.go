package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBookCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Add, list and search books",
	}

	var (
		title, genre string
		unavailable  bool
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.addBook(cmd.OutOrStdout(), title, genre, !unavailable)
		},
	}
	add.Flags().StringVar(&title, "title", "", "Book title")
	add.Flags().StringVar(&genre, "genre", "", "Genre (Fiction, Non-Fiction, Science, History, Biography)")
	add.Flags().BoolVar(&unavailable, "unavailable", false, "Add the book as already checked out")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("genre")

	var listGenre string
	list := &cobra.Command{
		Use:   "list",
		Short: "List books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listBooks(cmd.OutOrStdout(), listGenre)
		},
	}
	list.Flags().StringVar(&listGenre, "genre", "", "Only list books of this genre")

	search := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search books by title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.searchBooks(cmd.OutOrStdout(), args[0])
		},
	}

	cmd.AddCommand(add, list, search)
	return cmd
}

func newMemberCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Register members and look up fees",
	}

	var name, level, password string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a member",
		Long: `Register a member. The membership level is stored as given and only
checked when the fee is looked up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw := password
			if pw == "" {
				var err error
				if pw, err = newPrompter(cmd).password(fmt.Sprintf("Enter password for %s: ", name)); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
			}
			return a.addMember(cmd.OutOrStdout(), name, level, pw)
		},
	}
	add.Flags().StringVar(&name, "name", "", "Member name")
	add.Flags().StringVar(&level, "level", "", "Membership level (Basic, Premium, Gold)")
	add.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("level")

	list := &cobra.Command{
		Use:   "list",
		Short: "List members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listMembers(cmd.OutOrStdout())
		},
	}

	fee := &cobra.Command{
		Use:   "fee MEMBER_ID",
		Short: "Show a member's annual fee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.memberFee(cmd.OutOrStdout(), id)
		},
	}

	var newPassword string
	reset := &cobra.Command{
		Use:   "reset-password MEMBER_ID",
		Short: "Set a new password for a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			pw := newPassword
			if pw == "" {
				if pw, err = newPrompter(cmd).password("Enter new password: "); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
			}
			return a.resetPassword(cmd.OutOrStdout(), id, pw)
		},
	}
	reset.Flags().StringVar(&newPassword, "password", "", "New password (prompted when omitted)")

	cmd.AddCommand(add, list, fee, reset)
	return cmd
}

// bookMemberArgs parses the BOOK_ID MEMBER_ID pair shared by several commands.
func bookMemberArgs(args []string) (bookID, memberID int64, err error) {
	if bookID, err = parseID(args[0]); err != nil {
		return 0, 0, err
	}
	if memberID, err = parseID(args[1]); err != nil {
		return 0, 0, err
	}
	return bookID, memberID, nil
}

// authenticatedCommand builds a BOOK_ID MEMBER_ID command that checks the
// member's password before running fn.
func authenticatedCommand(a *app, use, short string, fn func(a *app, cmd *cobra.Command, bookID, memberID int64) error) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   use + " BOOK_ID MEMBER_ID",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, memberID, err := bookMemberArgs(args)
			if err != nil {
				return err
			}
			if err := a.authenticate(newPrompter(cmd), memberID, password); err != nil {
				return err
			}
			return fn(a, cmd, bookID, memberID)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Member password (prompted when omitted)")
	return cmd
}

func newCheckoutCommand(a *app) *cobra.Command {
	return authenticatedCommand(a, "checkout", "Borrow a book for a member",
		func(a *app, cmd *cobra.Command, bookID, memberID int64) error {
			return a.checkout(cmd.OutOrStdout(), bookID, memberID)
		})
}

func newReserveCommand(a *app) *cobra.Command {
	return authenticatedCommand(a, "reserve", "Reserve a book, or borrow it if it is available",
		func(a *app, cmd *cobra.Command, bookID, memberID int64) error {
			return a.reserve(cmd.OutOrStdout(), bookID, memberID)
		})
}

func newCancelReservationCommand(a *app) *cobra.Command {
	return authenticatedCommand(a, "cancel-reservation", "Cancel a member's reservation",
		func(a *app, cmd *cobra.Command, bookID, memberID int64) error {
			return a.cancelReservation(cmd.OutOrStdout(), bookID, memberID)
		})
}

func newReturnCommand(a *app) *cobra.Command {
	var late bool
	cmd := &cobra.Command{
		Use:   "return BOOK_ID",
		Short: "Return a book",
		Long: `Return a book. A late return is refused with an error and leaves the
book checked out; return it again without --late to complete it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.returnBook(cmd.OutOrStdout(), bookID, late)
		},
	}
	cmd.Flags().BoolVar(&late, "late", false, "The book is being returned late")
	return cmd
}

func newReservationsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reservations [BOOK_ID]",
		Short: "Show the reservation queue for one book or all books",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.listAllReservations(cmd.OutOrStdout())
			}
			bookID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.listReservations(cmd.OutOrStdout(), bookID)
		},
	}
}
