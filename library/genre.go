package library

import (
	"fmt"
	"strings"
)

// Genre categorises a book. Identifiers are assigned in declaration order
// starting at 1 and carry no meaning beyond equality and ordering.
type Genre int

const (
	Fiction Genre = iota + 1
	NonFiction
	Science
	History
	Biography
)

var genreNames = map[Genre]string{
	Fiction:    "Fiction",
	NonFiction: "Non-Fiction",
	Science:    "Science",
	History:    "History",
	Biography:  "Biography",
}

// Genres lists every genre in declaration order.
func Genres() []Genre {
	return []Genre{Fiction, NonFiction, Science, History, Biography}
}

// Valid reports whether g is one of the declared genres.
func (g Genre) Valid() bool {
	_, ok := genreNames[g]
	return ok
}

func (g Genre) String() string {
	if name, ok := genreNames[g]; ok {
		return name
	}
	return fmt.Sprintf("Genre(%d)", int(g))
}

// ParseGenre resolves a display name such as "Non-Fiction", "non_fiction" or
// "nonfiction" to its Genre.
func ParseGenre(s string) (Genre, error) {
	key := normalizeName(s)
	for _, g := range Genres() {
		if normalizeName(genreNames[g]) == key {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown genre %q", s)
}

func (g Genre) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("invalid genre %d", int(g))
	}
	return []byte(g.String()), nil
}

func (g *Genre) UnmarshalText(text []byte) error {
	parsed, err := ParseGenre(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// normalizeName lowercases s and drops separators so user input matches
// display names loosely.
func normalizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
