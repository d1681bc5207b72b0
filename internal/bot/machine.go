package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"partyfinder/internal/domain"
	"partyfinder/internal/service"
	"partyfinder/internal/session"

	"github.com/rs/zerolog"
)

// CancelKeyword aborts a text-input step, behaving exactly like Back.
const CancelKeyword = "cancel"

// Event is one inbound chat event: either a parsed tagged action or raw text.
type Event struct {
	UserID int64
	Handle string
	Action *Action
	Text   string
}

// Machine maps (current state, event) to (side effects, next state, screen).
// It owns the session lifecycle; all store writes happen through the services.
// Handle always returns a renderable screen: every error resolves to a valid,
// navigable state.
type Machine struct {
	sessions *session.Manager
	profiles *service.ProfileService
	search   *service.SearchService
	renderer *Renderer
	logger   zerolog.Logger
}

func NewMachine(sessions *session.Manager, profiles *service.ProfileService, search *service.SearchService, renderer *Renderer, logger zerolog.Logger) *Machine {
	return &Machine{
		sessions: sessions,
		profiles: profiles,
		search:   search,
		renderer: renderer,
		logger:   logger,
	}
}

// Handle processes one event for one user. Events for the same user are
// serialized on the session lock; distinct users run concurrently.
func (m *Machine) Handle(ctx context.Context, ev Event) domain.Screen {
	sess := m.sessions.Get(ev.UserID)
	sess.Lock()
	defer sess.Unlock()

	screen, err := m.dispatch(ctx, sess, ev)
	if err != nil {
		screen = m.resolveError(ctx, sess, err)
	}

	sess.Screen = screen.ID
	sess.SetLastRendered(screen.ID, screen.Text)
	return screen
}

// HandleInvalid resolves an event that failed action parsing: the unknown tag
// is treated as a ValidationError rather than silently dropped.
func (m *Machine) HandleInvalid(ctx context.Context, userID int64, err error) domain.Screen {
	sess := m.sessions.Get(userID)
	sess.Lock()
	defer sess.Unlock()

	screen := m.resolveError(ctx, sess, err)
	sess.Screen = screen.ID
	sess.SetLastRendered(screen.ID, screen.Text)
	return screen
}

func (m *Machine) dispatch(ctx context.Context, sess *session.Session, ev Event) (domain.Screen, error) {
	if ev.Action != nil {
		return m.dispatchAction(ctx, sess, ev, *ev.Action)
	}
	return m.dispatchText(ctx, sess, ev)
}

func (m *Machine) dispatchAction(ctx context.Context, sess *session.Session, ev Event, a Action) (domain.Screen, error) {
	// Back and main menu work from any state, at any time.
	switch a.Kind {
	case ActionGoBack:
		return m.back(ctx, sess)
	case ActionMainMenu:
		sess.Reset()
		return m.renderer.Build(ctx, sess, domain.ScreenMainMenu, "")
	}

	switch sess.State {
	case domain.StateIdle:
		return m.idleAction(ctx, sess, ev, a)

	case domain.StateEditMode:
		if a.Kind == ActionSetMode {
			if err := m.profiles.SetMode(ctx, sess.UserID, ev.Handle, a.Mode); err != nil {
				return domain.Screen{}, err
			}
			sess.Reset()
			return m.renderer.Build(ctx, sess, domain.ScreenProfile, "")
		}

	case domain.StateSearchChooseMode:
		switch a.Kind {
		case ActionFilterMode:
			sess.Draft.Criteria.Mode = &domain.ModeChoice{Mode: a.Mode}
			return m.advance(ctx, sess, domain.ScreenSearchPosition, domain.StateSearchPosition)
		case ActionFilterModeNone:
			sess.Draft.Criteria.Mode = &domain.ModeChoice{Any: true}
			return m.advance(ctx, sess, domain.ScreenSearchPosition, domain.StateSearchPosition)
		}

	case domain.StateSearchPosition:
		switch a.Kind {
		case ActionToggleExcludePos:
			// The one transition that mutates in place: no push, no state change.
			sess.Draft.Criteria.ToggleExcludeOwn()
			return m.renderer.Build(ctx, sess, domain.ScreenSearchPosition, "")
		case ActionSpecPosition:
			return m.advance(ctx, sess, domain.ScreenSearchSelectPosition, domain.StateSearchSelectPosition)
		case ActionStartSearch:
			return m.advance(ctx, sess, domain.ScreenSearchFullParty, domain.StateSearchFullParty)
		}

	case domain.StateSearchSelectPosition:
		if a.Kind == ActionSelectPosition {
			sess.Draft.Criteria.SetSpecificPosition(a.Position)
			// Return to the position screen: discard the entry pushed when the
			// select screen was entered so back-depth stays consistent.
			sess.Pop()
			sess.State = domain.StateSearchPosition
			return m.renderer.Build(ctx, sess, domain.ScreenSearchPosition, "")
		}

	case domain.StateSearchFullParty:
		switch a.Kind {
		case ActionOnlyFullYes, ActionOnlyFullNo:
			v := a.Kind == ActionOnlyFullYes
			sess.Draft.Criteria.FullPartyOnly = &v
			return m.advance(ctx, sess, domain.ScreenSearchRating, domain.StateSearchRating)
		}

	case domain.StateSearchRating:
		switch a.Kind {
		case ActionRatingNone:
			sess.Draft.Criteria.Tolerance = &domain.ToleranceChoice{Any: true}
			return m.runSearch(ctx, sess)
		case ActionDelta:
			sess.Draft.Criteria.Tolerance = &domain.ToleranceChoice{Delta: a.Delta}
			return m.runSearch(ctx, sess)
		case ActionDeltaCustom:
			return m.advance(ctx, sess, domain.ScreenSearchRatingCustom, domain.StateSearchRatingCustom)
		}

	case domain.StateEditRole, domain.StateEditRating, domain.StateSearchRatingCustom:
		// Text-input states: only the global nav actions handled above apply.
	}

	return domain.Screen{}, domain.NewValidationError("that button isn't available right now")
}

func (m *Machine) idleAction(ctx context.Context, sess *session.Session, ev Event, a Action) (domain.Screen, error) {
	switch a.Kind {
	case ActionMyProfile:
		return m.advance(ctx, sess, domain.ScreenProfile, domain.StateIdle)

	case ActionSearchParty:
		if _, err := m.profiles.Get(ctx, sess.UserID); err != nil {
			if errors.Is(err, domain.ErrProfileNotFound) {
				return domain.Screen{}, domain.ErrProfileNotSet
			}
			return domain.Screen{}, err
		}
		sess.Draft = session.Draft{}
		return m.advance(ctx, sess, domain.ScreenSearchChooseMode, domain.StateSearchChooseMode)

	case ActionEditPosition:
		return m.advance(ctx, sess, domain.ScreenEditRole, domain.StateEditRole)

	case ActionEditMode:
		return m.advance(ctx, sess, domain.ScreenEditMode, domain.StateEditMode)

	case ActionEditRating:
		return m.advance(ctx, sess, domain.ScreenEditRating, domain.StateEditRating)

	case ActionToggleOnline:
		if _, err := m.profiles.ToggleVisible(ctx, sess.UserID, ev.Handle); err != nil {
			return domain.Screen{}, err
		}
		return m.renderer.Build(ctx, sess, domain.ScreenProfile, "")

	case ActionToggleFullParty:
		if _, err := m.profiles.ToggleFullParty(ctx, sess.UserID, ev.Handle); err != nil {
			return domain.Screen{}, err
		}
		return m.renderer.Build(ctx, sess, domain.ScreenProfile, "")
	}

	return domain.Screen{}, domain.NewValidationError("that button isn't available right now")
}

func (m *Machine) dispatchText(ctx context.Context, sess *session.Session, ev Event) (domain.Screen, error) {
	text := strings.TrimSpace(ev.Text)

	if text == "/start" {
		sess.Reset()
		return m.renderer.Build(ctx, sess, domain.ScreenMainMenu, "")
	}
	if strings.EqualFold(text, CancelKeyword) && isTextInputState(sess.State) {
		return m.back(ctx, sess)
	}

	switch sess.State {
	case domain.StateEditRole:
		role, ok := parseRoleInput(text)
		if !ok {
			return domain.Screen{}, domain.NewValidationError("send a digit 1-5 to pick a position")
		}
		if err := m.profiles.SetRole(ctx, sess.UserID, ev.Handle, role); err != nil {
			return domain.Screen{}, err
		}
		sess.Reset()
		return m.renderer.Build(ctx, sess, domain.ScreenProfile, "")

	case domain.StateEditRating:
		rating, err := strconv.Atoi(text)
		if err != nil {
			return domain.Screen{}, domain.NewValidationError("send your MMR as a number")
		}
		if err := m.profiles.SetRating(ctx, sess.UserID, ev.Handle, rating); err != nil {
			return domain.Screen{}, err
		}
		sess.Reset()
		return m.renderer.Build(ctx, sess, domain.ScreenProfile, "")

	case domain.StateSearchRatingCustom:
		delta, err := strconv.Atoi(text)
		if err != nil || delta <= 0 {
			return domain.Screen{}, domain.NewValidationError("send the range as a positive number")
		}
		sess.Draft.Criteria.Tolerance = &domain.ToleranceChoice{Delta: delta}
		return m.runSearch(ctx, sess)
	}

	// Free text in a button-driven state: nudge, mutate nothing.
	return domain.Screen{}, domain.NewValidationError("use the buttons to continue")
}

// runSearch is the single terminal transition of the search flow: execute the
// engine with the accumulated criteria, then unconditionally clear the draft
// and stack and return to idle, whichever rating option triggered it.
func (m *Machine) runSearch(ctx context.Context, sess *session.Session) (domain.Screen, error) {
	results, err := m.search.Search(ctx, sess.UserID, sess.Draft.Criteria)
	if err != nil {
		return domain.Screen{}, err
	}

	sess.Reset()
	// The outcome text is computed here and handed to the renderer as cached
	// text; the buttons come from the renderer, same as on back-navigation.
	return m.renderer.Build(ctx, sess, domain.ScreenSearchResults, ResultsText(results))
}

// back pops the navigation stack and reconstructs the prior screen, reusing
// the cached text when present. Buttons are regenerated either way. An empty
// stack lands on the main menu.
func (m *Machine) back(ctx context.Context, sess *session.Session) (domain.Screen, error) {
	id, ok := sess.Pop()
	if !ok {
		sess.Reset()
		return m.renderer.Build(ctx, sess, domain.ScreenMainMenu, "")
	}

	cached, _ := sess.LastRendered(id)
	screen, err := m.renderer.Build(ctx, sess, id, cached)
	if err != nil {
		return domain.Screen{}, err
	}
	sess.State = stateForScreen(id)
	return screen, nil
}

// advance renders the target screen first, then pushes the screen being left
// and moves the state, so a render failure leaves session state untouched.
func (m *Machine) advance(ctx context.Context, sess *session.Session, to domain.ScreenID, next domain.State) (domain.Screen, error) {
	screen, err := m.renderer.Build(ctx, sess, to, "")
	if err != nil {
		return domain.Screen{}, err
	}
	sess.Push(sess.Screen)
	sess.State = next
	return screen, nil
}

func (m *Machine) resolveError(ctx context.Context, sess *session.Session, err error) domain.Screen {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		// Recovered locally: re-prompt the same screen, nothing mutated.
		screen, berr := m.renderer.Build(ctx, sess, sess.Screen, "")
		if berr != nil {
			return m.failureScreen(ctx, sess, berr)
		}
		screen.Text = "❌ " + ve.Msg + "\n\n" + screen.Text
		return screen

	case errors.Is(err, domain.ErrProfileNotSet):
		sess.Reset()
		screen, berr := m.renderer.Build(ctx, sess, domain.ScreenProfileRequired, "")
		if berr != nil {
			return m.failureScreen(ctx, sess, berr)
		}
		return screen

	case errors.Is(err, domain.ErrRatingNotSet):
		sess.Reset()
		screen, berr := m.renderer.Build(ctx, sess, domain.ScreenRatingRequired, "")
		if berr != nil {
			return m.failureScreen(ctx, sess, berr)
		}
		return screen
	}

	return m.failureScreen(ctx, sess, err)
}

func (m *Machine) failureScreen(ctx context.Context, sess *session.Session, err error) domain.Screen {
	m.logger.Error().Err(err).Int64("user_id", sess.UserID).Msg("event handling failed")
	sess.Reset()
	// The failure screen reads no external state; its Build case cannot fail.
	screen, _ := m.renderer.Build(ctx, sess, domain.ScreenError, "")
	return screen
}

func stateForScreen(id domain.ScreenID) domain.State {
	switch id {
	case domain.ScreenEditRole:
		return domain.StateEditRole
	case domain.ScreenEditMode:
		return domain.StateEditMode
	case domain.ScreenEditRating:
		return domain.StateEditRating
	case domain.ScreenSearchChooseMode:
		return domain.StateSearchChooseMode
	case domain.ScreenSearchPosition:
		return domain.StateSearchPosition
	case domain.ScreenSearchSelectPosition:
		return domain.StateSearchSelectPosition
	case domain.ScreenSearchFullParty:
		return domain.StateSearchFullParty
	case domain.ScreenSearchRating:
		return domain.StateSearchRating
	case domain.ScreenSearchRatingCustom:
		return domain.StateSearchRatingCustom
	default:
		return domain.StateIdle
	}
}

func isTextInputState(s domain.State) bool {
	switch s {
	case domain.StateEditRole, domain.StateEditRating, domain.StateSearchRatingCustom:
		return true
	}
	return false
}

func parseRoleInput(text string) (domain.Role, bool) {
	if n, err := strconv.Atoi(text); err == nil {
		return domain.RoleByNumber(n)
	}
	for _, r := range domain.Roles() {
		if strings.EqualFold(string(r), text) {
			return r, true
		}
	}
	return "", false
}
