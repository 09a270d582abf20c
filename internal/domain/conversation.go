package domain

// Turn is one completed question/answer exchange.
type Turn struct {
	Question string
	Answer   string
}

// Conversation is the in-memory transcript of completed turns. Failed turns
// are never appended. Not safe for concurrent use; the owning session
// serializes access.
type Conversation struct {
	turns []Turn
}

// Append records a completed turn.
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Turns returns a copy of the transcript.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of completed turns.
func (c *Conversation) Len() int { return len(c.turns) }
