package text

// CmdType is a text protocol command name.
type CmdType string

// Protocol delimiters
const (
	// CRLF is the line terminator for the memcached protocol
	CRLF = "\r\n"

	// Space separates command tokens
	Space = " "
)

// Commands
const (
	// CmdGet retrieves a single item.
	//
	// Wire format: get <key>\r\n
	//
	// Response: VALUE <key> <flags> <bytes>\r\n<data>\r\nEND\r\n on hit,
	// END\r\n on miss.
	CmdGet CmdType = "get"

	// CmdSet stores an item unconditionally. Flags and exptime are always 0.
	//
	// Wire format: set <key> 0 0 <bytes>\r\n<data>\r\n
	//
	// Response: STORED\r\n or NOT_STORED\r\n
	CmdSet CmdType = "set"

	// CmdStats requests the general-purpose server statistics.
	//
	// Wire format: stats\r\n
	//
	// Response: STAT <name> <value>\r\n lines followed by END\r\n
	CmdStats CmdType = "stats"

	// CmdDelete removes an item.
	//
	// Wire format: delete <key>\r\n
	//
	// Response: DELETED\r\n or NOT_FOUND\r\n
	CmdDelete CmdType = "delete"

	// CmdFlushAll invalidates all items immediately.
	//
	// Wire format: flush_all\r\n
	//
	// Response: OK\r\n
	CmdFlushAll CmdType = "flush_all"

	// CmdVersion requests the server version.
	//
	// Wire format: version\r\n
	//
	// Response: VERSION <version>\r\n
	CmdVersion CmdType = "version"
)

// Response tokens
const (
	ValuePrefix   = "VALUE"
	EndMarker     = "END"
	StatPrefix    = "STAT"
	VersionPrefix = "VERSION"

	StatusStored    = "STORED"
	StatusNotStored = "NOT_STORED"
	StatusDeleted   = "DELETED"
	StatusNotFound  = "NOT_FOUND"
	StatusOK        = "OK"

	ErrorGeneric      = "ERROR"
	ErrorClientPrefix = "CLIENT_ERROR"
	ErrorServerPrefix = "SERVER_ERROR"
)

// Protocol limits
const (
	MinKeyLength   = 1
	MaxKeyLength   = 250
	MaxValueLength = 1048576
)

// Receive chunk sizes. Each Receive call reads at most this many bytes.
const (
	GetChunkSize   = 4096
	SetChunkSize   = 100
	StatsChunkSize = 4096
)

// Bounds on accumulated responses. A response that grows past its bound
// without completing is a protocol error.
const (
	maxStatsSize = 64 * 1024
	maxLineSize  = 1024
)

// maxHeaderSize bounds a VALUE header line: "VALUE " + key + flags + bytes.
const maxHeaderSize = len(ValuePrefix) + 1 + MaxKeyLength + 1 + 10 + 1 + 20 + len(CRLF)

// getTrailer follows the data block of a get hit.
const getTrailer = CRLF + EndMarker + CRLF

// MaxResponseSize returns the largest response accepted for cmd. A response
// still incomplete at this size is a protocol error.
func MaxResponseSize(cmd CmdType) int {
	switch cmd {
	case CmdGet:
		return maxHeaderSize + MaxValueLength + len(getTrailer)
	case CmdSet:
		return SetChunkSize
	case CmdStats:
		return maxStatsSize
	default:
		return maxLineSize + len(CRLF)
	}
}
