package text

// Request is a single text protocol command.
// Key is ignored for stats, flush_all and version; Data is used by set only.
type Request struct {
	Command CmdType
	Key     string
	Data    []byte
}

func NewGetRequest(key string) *Request {
	return &Request{Command: CmdGet, Key: key}
}

func NewSetRequest(key string, data []byte) *Request {
	return &Request{Command: CmdSet, Key: key, Data: data}
}

func NewStatsRequest() *Request {
	return &Request{Command: CmdStats}
}

func NewDeleteRequest(key string) *Request {
	return &Request{Command: CmdDelete, Key: key}
}

func NewFlushAllRequest() *Request {
	return &Request{Command: CmdFlushAll}
}

func NewVersionRequest() *Request {
	return &Request{Command: CmdVersion}
}

// HasKey reports whether the command carries a key on the wire.
func (r *Request) HasKey() bool {
	switch r.Command {
	case CmdGet, CmdSet, CmdDelete:
		return true
	default:
		return false
	}
}

// Validate checks the key and value limits for the command.
func (r *Request) Validate() error {
	if r.HasKey() {
		if err := ValidateKey(r.Key); err != nil {
			return err
		}
	}
	if r.Command == CmdSet {
		return ValidateValue(r.Data)
	}
	return nil
}
