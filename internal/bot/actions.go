package bot

import (
	"fmt"
	"strconv"
	"strings"

	"partyfinder/internal/domain"
)

// ActionKind enumerates the closed vocabulary of tagged actions the state
// machine accepts. Unknown or malformed callback data never falls through
// silently: parsing yields a ValidationError.
type ActionKind int

const (
	ActionGoBack ActionKind = iota
	ActionMainMenu
	ActionSearchParty
	ActionMyProfile
	ActionToggleOnline
	ActionToggleFullParty
	ActionEditPosition
	ActionEditMode
	ActionEditRating
	ActionSetMode         // setmode_<Mode>: commit profile mode
	ActionFilterMode      // mode_<Mode>: search mode filter
	ActionFilterModeNone  // mode_none: explicit no-mode-filter sentinel
	ActionToggleExcludePos
	ActionStartSearch
	ActionSpecPosition
	ActionSelectPosition // selectpos_<1..5>
	ActionOnlyFullYes
	ActionOnlyFullNo
	ActionRatingNone // mmr_none: explicit no-rating-filter sentinel
	ActionDelta      // delta_<int>
	ActionDeltaCustom
)

// Action is one parsed tagged event. Mode, Position, and Delta are only
// meaningful for the kinds that carry them.
type Action struct {
	Kind     ActionKind
	Mode     domain.Mode
	Position domain.Role
	Delta    int
}

var plainActions = map[string]ActionKind{
	"go_back":                 ActionGoBack,
	"main_menu":               ActionMainMenu,
	"search_party":            ActionSearchParty,
	"my_profile":              ActionMyProfile,
	"toggle_online":           ActionToggleOnline,
	"toggle_fullparty":        ActionToggleFullParty,
	"edit_position":           ActionEditPosition,
	"edit_mode":               ActionEditMode,
	"edit_mmr":                ActionEditRating,
	"mode_none":               ActionFilterModeNone,
	"toggle_exclude_position": ActionToggleExcludePos,
	"start_search":            ActionStartSearch,
	"spec_position":           ActionSpecPosition,
	"only_full_yes":           ActionOnlyFullYes,
	"only_full_no":            ActionOnlyFullNo,
	"mmr_none":                ActionRatingNone,
	"delta_custom":            ActionDeltaCustom,
}

// ParseAction maps raw callback data to an Action.
func ParseAction(data string) (Action, error) {
	if kind, ok := plainActions[data]; ok {
		return Action{Kind: kind}, nil
	}

	switch {
	case strings.HasPrefix(data, "setmode_"):
		mode, ok := domain.ParseMode(strings.TrimPrefix(data, "setmode_"))
		if !ok {
			return Action{}, domain.NewValidationError(fmt.Sprintf("unknown mode %q", data))
		}
		return Action{Kind: ActionSetMode, Mode: mode}, nil

	case strings.HasPrefix(data, "mode_"):
		mode, ok := domain.ParseMode(strings.TrimPrefix(data, "mode_"))
		if !ok {
			return Action{}, domain.NewValidationError(fmt.Sprintf("unknown mode %q", data))
		}
		return Action{Kind: ActionFilterMode, Mode: mode}, nil

	case strings.HasPrefix(data, "selectpos_"):
		n, err := strconv.Atoi(strings.TrimPrefix(data, "selectpos_"))
		if err != nil {
			return Action{}, domain.NewValidationError(fmt.Sprintf("malformed position tag %q", data))
		}
		role, ok := domain.RoleByNumber(n)
		if !ok {
			return Action{}, domain.NewValidationError(fmt.Sprintf("position out of range in %q", data))
		}
		return Action{Kind: ActionSelectPosition, Position: role}, nil

	case strings.HasPrefix(data, "delta_"):
		d, err := strconv.Atoi(strings.TrimPrefix(data, "delta_"))
		if err != nil || d < 0 {
			return Action{}, domain.NewValidationError(fmt.Sprintf("malformed delta tag %q", data))
		}
		return Action{Kind: ActionDelta, Delta: d}, nil
	}

	return Action{}, domain.NewValidationError(fmt.Sprintf("unknown action %q", data))
}

// ModeTag builds the callback data for a search mode filter button.
func ModeTag(m domain.Mode) string {
	return "mode_" + strings.ReplaceAll(string(m), " ", "")
}

// SetModeTag builds the callback data for a profile mode button.
func SetModeTag(m domain.Mode) string {
	return "setmode_" + strings.ReplaceAll(string(m), " ", "")
}
