package stream

// Error represents a malformed event sequence or document.
type Error struct {
	Msg      string
	Location string
}

func (e *Error) Error() string {
	if e.Location == "" {
		return e.Msg
	}
	return e.Location + ": " + e.Msg
}
