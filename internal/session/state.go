package session

// State is the lifecycle position of a chat session
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateActive
	// StateChatting means at least one bot reply is pending
	StateChatting
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateChatting:
		return "chatting"
	default:
		return "unknown"
	}
}
