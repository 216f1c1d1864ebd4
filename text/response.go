package text

// GetResult is the decoded response to a get. Found is false on a miss.
type GetResult struct {
	Found bool
	Key   string
	Flags uint32 // passed through; always 0 for items written by this client
	Data  []byte // aliases the response buffer
}

// StoreResult is the outcome of a set.
type StoreResult uint8

const (
	ResultNotStored StoreResult = iota
	ResultStored
)

func (r StoreResult) String() string {
	if r == ResultStored {
		return StatusStored
	}
	return StatusNotStored
}
