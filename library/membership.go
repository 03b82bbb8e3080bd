package library

import (
	"fmt"
	"strconv"
	"strings"
)

// MembershipLevel is a membership tier. Its value is the annual fee.
type MembershipLevel int

const (
	Basic   MembershipLevel = 100
	Premium MembershipLevel = 200
	Gold    MembershipLevel = 500
)

var levelNames = map[MembershipLevel]string{
	Basic:   "Basic",
	Premium: "Premium",
	Gold:    "Gold",
}

// MembershipLevels lists every tier from cheapest to most expensive.
func MembershipLevels() []MembershipLevel {
	return []MembershipLevel{Basic, Premium, Gold}
}

// Fee returns the annual fee for the tier.
func (l MembershipLevel) Fee() int { return int(l) }

// Valid reports whether l is one of the declared tiers.
func (l MembershipLevel) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

func (l MembershipLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("MembershipLevel(%d)", int(l))
}

// ParseMembershipLevel resolves a tier name case-insensitively.
func ParseMembershipLevel(s string) (MembershipLevel, error) {
	key := normalizeName(s)
	for _, l := range MembershipLevels() {
		if normalizeName(levelNames[l]) == key {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown membership level %q", s)
}

// LevelFromText turns user-supplied text into a member level. Recognised
// tier names become a MembershipLevel; anything else is kept as the raw
// string so that Member.Fee reports it.
func LevelFromText(s string) any {
	if l, err := ParseMembershipLevel(s); err == nil {
		return l
	}
	return s
}

// Stored levels carry a prefix so that a reload restores the Go type the
// member was created with. A tier name held as a plain string stays a string.
const (
	tierPrefix = "tier:"
	textPrefix = "text:"
)

// encodeLevel is the column form of a member level.
func encodeLevel(level any) string {
	if l, ok := level.(MembershipLevel); ok {
		return tierPrefix + strconv.Itoa(int(l))
	}
	return textPrefix + fmt.Sprint(level)
}

// decodeLevel reverses encodeLevel. Values without a known prefix are
// returned as text.
func decodeLevel(s string) any {
	if v, ok := strings.CutPrefix(s, tierPrefix); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return MembershipLevel(n)
		}
		return s
	}
	if v, ok := strings.CutPrefix(s, textPrefix); ok {
		return v
	}
	return s
}
