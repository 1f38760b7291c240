package model

// Continuation is the opaque paging token returned by the wiki. A nil or empty
// continuation means there are no more pages.
type Continuation map[string]string

func (c Continuation) Done() bool {
	return len(c) == 0
}
