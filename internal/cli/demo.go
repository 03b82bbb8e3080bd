package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"library-system/library"
)

func newDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through borrowing, a late return and a fee lookup",
		Args:  cobra.NoArgs,
		// The walkthrough uses plain values; no ledger is opened.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.OutOrStdout())
		},
	}
}

func runDemo(w io.Writer) error {
	gatsby := library.NewBook("The Great Gatsby", library.Fiction, true)

	if err := gatsby.Borrow(); err != nil {
		fmt.Fprintln(w, err)
	} else {
		fmt.Fprintf(w, "'%s' has been borrowed.\n", gatsby.Title)
	}

	if err := gatsby.ReturnBook(true); err != nil {
		var late *library.LateReturnError
		if !errors.As(err, &late) {
			return err
		}
		fmt.Fprintln(w, err)
	}

	member := library.NewMember("Alice", library.Premium)
	fee, err := member.Fee()
	if err != nil {
		var invalid *library.InvalidMembershipError
		if !errors.As(err, &invalid) {
			return err
		}
		fmt.Fprintln(w, err)
		return nil
	}
	fmt.Fprintf(w, "Membership fee for %s: %d\n", member.Name, fee)
	return nil
}
