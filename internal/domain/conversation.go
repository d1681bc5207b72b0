package domain

// State identifies where a user's conversation currently is. The set is
// closed; dispatch over it is exhaustive.
type State string

const (
	StateIdle                 State = "idle"
	StateEditRole             State = "edit_role"
	StateEditMode             State = "edit_mode"
	StateEditRating           State = "edit_rating"
	StateSearchChooseMode     State = "search_choose_mode"
	StateSearchPosition       State = "search_position"
	StateSearchSelectPosition State = "search_select_position"
	StateSearchFullParty      State = "search_full_party"
	StateSearchRating         State = "search_rating"
	StateSearchRatingCustom   State = "search_rating_custom"
)

// ScreenID names a renderable screen. The navigation stack records these, and
// back-navigation reconstructs a screen from its id plus live session state.
type ScreenID string

const (
	ScreenMainMenu             ScreenID = "main_menu"
	ScreenProfile              ScreenID = "profile"
	ScreenEditRole             ScreenID = "edit_role"
	ScreenEditMode             ScreenID = "edit_mode"
	ScreenEditRating           ScreenID = "edit_rating"
	ScreenSearchChooseMode     ScreenID = "search_choose_mode"
	ScreenSearchPosition       ScreenID = "search_position"
	ScreenSearchSelectPosition ScreenID = "search_select_position"
	ScreenSearchFullParty      ScreenID = "search_full_party"
	ScreenSearchRating         ScreenID = "search_rating"
	ScreenSearchRatingCustom   ScreenID = "search_rating_custom"
	ScreenSearchResults        ScreenID = "search_results"
	ScreenProfileRequired      ScreenID = "profile_required"
	ScreenRatingRequired       ScreenID = "rating_required"
	ScreenError                ScreenID = "error"
)

// Button is one tagged-action affordance. Action is a callback tag from the
// closed vocabulary the state machine accepts.
type Button struct {
	Label  string
	Action string
}

// Screen is the transport-agnostic render descriptor handed to the chat
// adapter: text plus rows of buttons.
type Screen struct {
	ID      ScreenID
	Text    string
	Buttons [][]Button
}
