package domain

import (
	"strings"
	"time"
)

// Role is a Dota 2 lane position, numbered 1-5 in the usual community order.
type Role string

const (
	RoleCarry       Role = "Carry"
	RoleMid         Role = "Mid"
	RoleOfflane     Role = "Offlane"
	RoleSoftSupport Role = "Soft Support"
	RoleHardSupport Role = "Hard Support"
)

var rolesByNumber = map[int]Role{
	1: RoleCarry,
	2: RoleMid,
	3: RoleOfflane,
	4: RoleSoftSupport,
	5: RoleHardSupport,
}

// RoleByNumber maps the 1-5 position digit to its role.
func RoleByNumber(n int) (Role, bool) {
	r, ok := rolesByNumber[n]
	return r, ok
}

// Roles lists all positions in 1-5 order.
func Roles() []Role {
	return []Role{RoleCarry, RoleMid, RoleOfflane, RoleSoftSupport, RoleHardSupport}
}

type Mode string

const (
	ModeTurbo       Mode = "Turbo"
	ModeAllPick     Mode = "All Pick"
	ModeSingleDraft Mode = "Single Draft"
	ModeRanked      Mode = "Ranked"
)

// Modes lists all selectable game modes in menu order.
func Modes() []Mode {
	return []Mode{ModeTurbo, ModeAllPick, ModeSingleDraft, ModeRanked}
}

// ParseMode resolves a mode token case-insensitively, with or without spaces.
func ParseMode(s string) (Mode, bool) {
	for _, m := range Modes() {
		if strings.EqualFold(string(m), s) || strings.EqualFold(strings.ReplaceAll(string(m), " ", ""), s) {
			return m, true
		}
	}
	return "", false
}

const (
	RatingMin = 0
	RatingMax = 15000
)

// Profile is the per-user record of matchable attributes. Optional fields are
// pointers: nil means the user never set them.
type Profile struct {
	UserID         int64
	Role           *Role
	Mode           *Mode
	Rating         *int
	Handle         string // externally-visible chat handle, used for contact links
	Visible        bool
	WantsFullParty bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProfilePatch carries a partial profile update. Nil fields are left untouched
// by an upsert; set fields overwrite.
type ProfilePatch struct {
	Role           *Role
	Mode           *Mode
	Rating         *int
	Handle         *string
	Visible        *bool
	WantsFullParty *bool
}

type PositionFilterKind int

const (
	PositionFilterNone PositionFilterKind = iota
	PositionFilterExcludeOwn
	PositionFilterSpecific
)

// PositionFilter restricts candidates by role. Kind Specific carries the role;
// ExcludeOwn drops candidates sharing the requester's own role.
type PositionFilter struct {
	Kind PositionFilterKind
	Role Role
}

// ModeChoice distinguishes "filter by this mode" from "explicitly no mode
// filter". A nil *ModeChoice in Criteria means the user has not chosen yet.
type ModeChoice struct {
	Any  bool
	Mode Mode
}

// ToleranceChoice is the rating-band selection: Any skips the restriction,
// otherwise Delta is the inclusive half-width around the requester's rating.
type ToleranceChoice struct {
	Any   bool
	Delta int
}

// Criteria is the incrementally built search filter. Nil members are steps the
// flow has not reached yet.
type Criteria struct {
	Mode          *ModeChoice
	Position      PositionFilter
	FullPartyOnly *bool
	Tolerance     *ToleranceChoice
}

// SetSpecificPosition selects an exact role, clearing ExcludeOwn.
func (c *Criteria) SetSpecificPosition(r Role) {
	c.Position = PositionFilter{Kind: PositionFilterSpecific, Role: r}
}

// ToggleExcludeOwn flips the exclude-own-role flag. Turning it on clears any
// specific role selection; the two are mutually exclusive.
func (c *Criteria) ToggleExcludeOwn() {
	if c.Position.Kind == PositionFilterExcludeOwn {
		c.Position = PositionFilter{Kind: PositionFilterNone}
		return
	}
	c.Position = PositionFilter{Kind: PositionFilterExcludeOwn}
}

// SearchRecord is one executed search, kept for the recent-searches line on
// the profile screen.
type SearchRecord struct {
	ID          string
	UserID      int64
	Summary     string
	ResultCount int
	CreatedAt   time.Time
}
