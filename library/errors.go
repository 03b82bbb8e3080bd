package library

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a book, member or reservation does not exist.
var ErrNotFound = errors.New("not found")

// ErrorKind names the category of a circulation failure.
type ErrorKind string

const (
	KindBookNotAvailable  ErrorKind = "BOOK_NOT_AVAILABLE"
	KindLateReturn        ErrorKind = "LATE_RETURN"
	KindInvalidMembership ErrorKind = "INVALID_MEMBERSHIP"
)

// Error is implemented by every failure raised by Book and Member.
type Error interface {
	error
	Kind() ErrorKind
}

// Sentinels for use with errors.Is. Any error of the same type matches.
var (
	ErrBookNotAvailable  = &BookNotAvailableError{}
	ErrLateReturn        = &LateReturnError{}
	ErrInvalidMembership = &InvalidMembershipError{}
)

// BookNotAvailableError is returned by Book.Borrow when the book is already out.
type BookNotAvailableError struct {
	Title string
}

func (e *BookNotAvailableError) Error() string {
	return fmt.Sprintf("the book '%s' is not available", e.Title)
}

func (e *BookNotAvailableError) Kind() ErrorKind { return KindBookNotAvailable }

func (e *BookNotAvailableError) Is(target error) bool {
	_, ok := target.(*BookNotAvailableError)
	return ok
}

// LateReturnError is returned by Book.ReturnBook for a late return. The book's
// availability is left untouched.
type LateReturnError struct {
	Title string
}

func (e *LateReturnError) Error() string {
	return fmt.Sprintf("the book '%s' was returned late", e.Title)
}

func (e *LateReturnError) Kind() ErrorKind { return KindLateReturn }

func (e *LateReturnError) Is(target error) bool {
	_, ok := target.(*LateReturnError)
	return ok
}

// InvalidMembershipError is returned by Member.Fee when the member's level is
// not a recognised MembershipLevel.
type InvalidMembershipError struct {
	Level any
}

func (e *InvalidMembershipError) Error() string {
	return fmt.Sprintf("'%v' is not a valid membership level", e.Level)
}

func (e *InvalidMembershipError) Kind() ErrorKind { return KindInvalidMembership }

func (e *InvalidMembershipError) Is(target error) bool {
	_, ok := target.(*InvalidMembershipError)
	return ok
}

// KindOf reports the kind of the first library Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var le Error
	if errors.As(err, &le) {
		return le.Kind(), true
	}
	return "", false
}
