package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"partyfinder/internal/constants"
	"partyfinder/internal/domain"
	"partyfinder/internal/service"
	"partyfinder/internal/session"

	"github.com/rs/zerolog"
)

// Renderer builds screen descriptors. Build is the single reconstruction
// function used both for fresh renders and for back-navigation: the optional
// cached text overrides the computed text, but buttons are always regenerated
// from the screen id and live state, so affordances never depend on where the
// text came from.
type Renderer struct {
	profiles *service.ProfileService
	search   *service.SearchService
	logger   zerolog.Logger
}

func NewRenderer(profiles *service.ProfileService, search *service.SearchService, logger zerolog.Logger) *Renderer {
	return &Renderer{profiles: profiles, search: search, logger: logger}
}

func (r *Renderer) Build(ctx context.Context, sess *session.Session, id domain.ScreenID, cachedText string) (domain.Screen, error) {
	var profile *domain.Profile
	if needsProfile(id) {
		p, err := r.profiles.Get(ctx, sess.UserID)
		if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
			return domain.Screen{}, err
		}
		profile = p
	}

	screen := domain.Screen{ID: id}

	switch id {
	case domain.ScreenMainMenu:
		screen.Text = "Hey! This is the Dota 2 party finder 🔥\nPick an action:"
		screen.Buttons = [][]domain.Button{
			{{Label: "🔍 Find teammates", Action: "search_party"}},
			{{Label: "👤 My profile", Action: "my_profile"}},
		}

	case domain.ScreenProfile:
		screen.Text = r.profileText(ctx, sess.UserID, profile)
		screen.Buttons = profileButtons(profile)

	case domain.ScreenEditRole:
		var b strings.Builder
		b.WriteString("🎯 Pick your position — send a digit 1-5:\n")
		for i, role := range domain.Roles() {
			fmt.Fprintf(&b, "%d — %s\n", i+1, role)
		}
		screen.Text = strings.TrimRight(b.String(), "\n")
		screen.Buttons = navButtons()

	case domain.ScreenEditMode:
		screen.Text = "🎮 Pick your preferred game mode:"
		var rows [][]domain.Button
		for _, m := range domain.Modes() {
			rows = append(rows, []domain.Button{{Label: string(m), Action: SetModeTag(m)}})
		}
		screen.Buttons = append(rows, navRow())

	case domain.ScreenEditRating:
		screen.Text = fmt.Sprintf("📊 Send your MMR (%d-%d):", domain.RatingMin, domain.RatingMax)
		screen.Buttons = navButtons()

	case domain.ScreenSearchChooseMode:
		screen.Text = "🎮 Which mode do you want to play?"
		var rows [][]domain.Button
		for _, m := range domain.Modes() {
			rows = append(rows, []domain.Button{{Label: string(m), Action: ModeTag(m)}})
		}
		rows = append(rows, []domain.Button{{Label: "Any mode", Action: "mode_none"}})
		screen.Buttons = append(rows, navRow())

	case domain.ScreenSearchPosition:
		screen.Text = positionText(sess.Draft.Criteria.Position)
		screen.Buttons = positionButtons(sess.Draft.Criteria.Position)

	case domain.ScreenSearchSelectPosition:
		screen.Text = "🎯 Which position are you looking for?"
		var rows [][]domain.Button
		for i, role := range domain.Roles() {
			rows = append(rows, []domain.Button{{Label: string(role), Action: fmt.Sprintf("selectpos_%d", i+1)}})
		}
		screen.Buttons = append(rows, navRow())

	case domain.ScreenSearchFullParty:
		screen.Text = "👥 Only players who want a full party?"
		screen.Buttons = [][]domain.Button{
			{{Label: "Yes", Action: "only_full_yes"}, {Label: "No", Action: "only_full_no"}},
			navRow(),
		}

	case domain.ScreenSearchRating:
		screen.Text = "📊 How close should their MMR be to yours?"
		row := []domain.Button{}
		for _, d := range constants.DeltaChoices {
			row = append(row, domain.Button{Label: fmt.Sprintf("±%d", d), Action: fmt.Sprintf("delta_%d", d)})
		}
		screen.Buttons = [][]domain.Button{
			{{Label: "Any MMR", Action: "mmr_none"}},
			row,
			{{Label: "Custom range", Action: "delta_custom"}},
			navRow(),
		}

	case domain.ScreenSearchRatingCustom:
		screen.Text = "📊 Send a custom MMR range (a positive number, e.g. 300):"
		screen.Buttons = navButtons()

	case domain.ScreenSearchResults:
		screen.Text = "🔍 Search finished. Start a new one from the main menu."
		screen.Buttons = [][]domain.Button{
			{{Label: "🔍 Search again", Action: "search_party"}},
			{{Label: "🏠 Main menu", Action: "main_menu"}},
		}

	case domain.ScreenProfileRequired:
		screen.Text = "❌ Fill in your profile first to search for teammates!"
		screen.Buttons = [][]domain.Button{
			{{Label: "👤 My profile", Action: "my_profile"}},
			{{Label: "🏠 Main menu", Action: "main_menu"}},
		}

	case domain.ScreenRatingRequired:
		screen.Text = "❌ Searching by MMR range needs your own MMR. Set it first!"
		screen.Buttons = [][]domain.Button{
			{{Label: "✏️ Set my MMR", Action: "edit_mmr"}},
			{{Label: "🏠 Main menu", Action: "main_menu"}},
		}

	case domain.ScreenError:
		screen.Text = "😵 Something went wrong. Try again from the main menu."
		screen.Buttons = [][]domain.Button{{{Label: "🏠 Main menu", Action: "main_menu"}}}

	default:
		return domain.Screen{}, fmt.Errorf("unknown screen %q", id)
	}

	if cachedText != "" {
		screen.Text = cachedText
	}
	return screen, nil
}

// ResultsText renders the outcome of a search. It is produced once, at search
// time, and cached as the results screen's text.
func ResultsText(matches []domain.Profile) string {
	if len(matches) == 0 {
		return "😔 Nobody matched your filters. Try again later or loosen them!"
	}

	var b strings.Builder
	b.WriteString("🔥 Found teammates:\n\n")
	for _, m := range matches {
		b.WriteString("👤 " + contactLine(&m) + "\n")
		b.WriteString(attributesLine(&m) + "\n\n")
	}
	b.WriteString("Message them directly to set up a game!")
	return b.String()
}

func contactLine(p *domain.Profile) string {
	if p.Handle != "" {
		return "t.me/" + p.Handle
	}
	return fmt.Sprintf("player id %d", p.UserID)
}

func attributesLine(p *domain.Profile) string {
	parts := []string{
		"📊 " + orDash(ratingString(p.Rating)),
		"🎯 " + orDash(roleString(p.Role)),
		"🎮 " + orDash(modeString(p.Mode)),
	}
	if p.WantsFullParty {
		parts = append(parts, "👥 full party")
	}
	return strings.Join(parts, " | ")
}

func (r *Renderer) profileText(ctx context.Context, userID int64, p *domain.Profile) string {
	if p == nil {
		return "❌ Profile not filled in yet.\nFill it in to find teammates!"
	}

	var b strings.Builder
	b.WriteString("👤 Your profile:\n\n")
	fmt.Fprintf(&b, "🎯 Position: %s\n", orDash(roleString(p.Role)))
	fmt.Fprintf(&b, "🎮 Mode: %s\n", orDash(modeString(p.Mode)))
	fmt.Fprintf(&b, "📊 MMR: %s\n", orDash(ratingString(p.Rating)))
	fmt.Fprintf(&b, "🟢 Discoverable: %s\n", onOff(p.Visible))
	fmt.Fprintf(&b, "👥 Wants full party: %s", yesNo(p.WantsFullParty))

	if records, err := r.search.RecentSearches(ctx, userID); err == nil && len(records) > 0 {
		b.WriteString("\n\n🕑 Recent searches:")
		for _, rec := range records {
			fmt.Fprintf(&b, "\n• %s (%d found)", rec.Summary, rec.ResultCount)
		}
	}
	return b.String()
}

func profileButtons(p *domain.Profile) [][]domain.Button {
	visible, fullParty := false, false
	if p != nil {
		visible, fullParty = p.Visible, p.WantsFullParty
	}
	return [][]domain.Button{
		{{Label: "✏️ Position", Action: "edit_position"}, {Label: "✏️ Mode", Action: "edit_mode"}},
		{{Label: "✏️ MMR", Action: "edit_mmr"}},
		{{Label: "🟢 Discoverable: " + onOff(visible), Action: "toggle_online"}},
		{{Label: "👥 Full party: " + yesNo(fullParty), Action: "toggle_fullparty"}},
		{{Label: "🔍 Find teammates", Action: "search_party"}},
		navRow(),
	}
}

func positionText(f domain.PositionFilter) string {
	current := "any position"
	switch f.Kind {
	case domain.PositionFilterExcludeOwn:
		current = "everything except my own position"
	case domain.PositionFilterSpecific:
		current = string(f.Role)
	}
	return "🎯 Position filter.\nCurrently looking for: " + current
}

func positionButtons(f domain.PositionFilter) [][]domain.Button {
	excludeLabel := "🚫 Exclude my position: " + onOff(f.Kind == domain.PositionFilterExcludeOwn)
	return [][]domain.Button{
		{{Label: excludeLabel, Action: "toggle_exclude_position"}},
		{{Label: "🎯 Specific position", Action: "spec_position"}},
		{{Label: "➡️ Continue", Action: "start_search"}},
		navRow(),
	}
}

func needsProfile(id domain.ScreenID) bool {
	return id == domain.ScreenProfile
}

func navRow() []domain.Button {
	return []domain.Button{
		{Label: "⬅️ Back", Action: "go_back"},
		{Label: "🏠 Main menu", Action: "main_menu"},
	}
}

func navButtons() [][]domain.Button {
	return [][]domain.Button{navRow()}
}

func roleString(r *domain.Role) string {
	if r == nil {
		return ""
	}
	return string(*r)
}

func modeString(m *domain.Mode) string {
	if m == nil {
		return ""
	}
	return string(*m)
}

func ratingString(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%d", *n)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
