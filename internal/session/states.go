package session

// State is one node of the lifecycle graph. Exactly one state is
// active at a time; a state's enter performs its work and picks the
// one allowed transition.
type State string

const (
	StateBootstrap      State = "bootstrap"
	StateLogin          State = "login"
	StateSessionLoading State = "session_loading"
	StateMainMenu       State = "main_menu"
	StateLobby          State = "lobby"
	StateGameplay       State = "gameplay"
	StateGameOver       State = "game_over"
)

// Transitions is the lifecycle graph. A state may only hand control to
// one of its listed successors; anything else is routed through the
// Login fail-safe.
var Transitions = map[State][]State{
	StateBootstrap:      {StateSessionLoading, StateLogin},
	StateLogin:          {StateSessionLoading},
	StateSessionLoading: {StateMainMenu},
	StateMainMenu:       {StateLobby},
	StateLobby:          {StateGameplay, StateMainMenu},
	StateGameplay:       {StateGameOver, StateMainMenu},
	StateGameOver:       {StateMainMenu},
}

// allowedTransition reports whether the graph permits from -> to
func allowedTransition(from, to State) bool {
	if to == StateLogin {
		// Login is always reachable as the fail-safe target
		return true
	}
	for _, s := range Transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// EventType identifies an external lifecycle signal
type EventType string

const (
	EventLoginSubmitted EventType = "login_submitted"
	EventNameSubmitted  EventType = "name_submitted"
	EventEnterLobby     EventType = "enter_lobby"
	EventLeaveLobby     EventType = "leave_lobby"
	EventMatchEnded     EventType = "match_ended"
	EventHostLost       EventType = "host_lost"
	EventReturnToMenu   EventType = "return_to_menu"
)

// Event is one external signal delivered to the active state
type Event struct {
	Type EventType
	// Name carries the entered display name for EventNameSubmitted
	Name string
}
