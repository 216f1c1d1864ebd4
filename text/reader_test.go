package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGetResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		found    bool
		key      string
		flags    uint32
		expected string
	}{
		{
			name:     "hit",
			input:    "VALUE x 0 3\r\nabc\r\nEND\r\n",
			found:    true,
			key:      "x",
			expected: "abc",
		},
		{
			name:     "hit without trailer",
			input:    "VALUE x 0 3\r\nabc\r\n",
			found:    true,
			key:      "x",
			expected: "abc",
		},
		{
			name:     "hit with garbage trailer",
			input:    "VALUE x 0 3\r\nabcXXXXXXX",
			found:    true,
			key:      "x",
			expected: "abc",
		},
		{
			name:     "flags passed through",
			input:    "VALUE foo 42 5\r\nhello\r\nEND\r\n",
			found:    true,
			key:      "foo",
			flags:    42,
			expected: "hello",
		},
		{
			name:     "cas field ignored",
			input:    "VALUE foo 0 2 9876\r\nhi\r\nEND\r\n",
			found:    true,
			key:      "foo",
			expected: "hi",
		},
		{
			name:     "data containing crlf",
			input:    "VALUE k 0 4\r\na\r\nb\r\nEND\r\n",
			found:    true,
			key:      "k",
			expected: "a\r\nb",
		},
		{
			name:     "empty value",
			input:    "VALUE k 0 0\r\n\r\nEND\r\n",
			found:    true,
			key:      "k",
			expected: "",
		},
		{name: "miss", input: "END\r\n"},
		{name: "empty buffer", input: ""},
		{name: "error line", input: "ERROR\r\n"},
		{name: "lowercase value", input: "value x 0 3\r\nabc\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseGetResponse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.found, res.Found)
			if !tt.found {
				return
			}
			assert.Equal(t, tt.key, res.Key)
			assert.Equal(t, tt.flags, res.Flags)
			assert.Equal(t, tt.expected, string(res.Data))
		})
	}
}

func TestParseGetResponse_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing header terminator", "VALUE x 0 3"},
		{"declared length beyond buffer", "VALUE x 0 10\r\nabc\r\n"},
		{"declared length far beyond buffer", "VALUE x 0 1048576\r\nabc"},
		{"length above protocol limit", "VALUE x 0 1048577\r\n"},
		{"negative length", "VALUE x 0 -1\r\n\r\n"},
		{"non numeric length", "VALUE x 0 abc\r\nabc\r\n"},
		{"non numeric flags", "VALUE x f 3\r\nabc\r\n"},
		{"missing length", "VALUE x 0\r\nabc\r\n"},
		{"double space", "VALUE  x 0 3\r\nabc\r\n"},
		{"glued token", "VALUEx 0 3\r\nabc\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseGetResponse([]byte(tt.input))
			var protoErr *ProtocolError
			require.ErrorAs(t, err, &protoErr)
			assert.False(t, res.Found)
			assert.True(t, ShouldCloseConnection(err))
		})
	}
}

func TestParseSetResponse(t *testing.T) {
	tests := []struct {
		input    string
		expected StoreResult
	}{
		{"STORED\r\n", ResultStored},
		{"NOT_STORED\r\n", ResultNotStored},
		{"ERROR\r\n", ResultNotStored},
		{"SERVER_ERROR out of memory\r\n", ResultNotStored},
		{"", ResultNotStored},
		{"STOR", ResultNotStored},
		{"STORED", ResultNotStored},
		{"STORED\r\nSTORED\r\n", ResultNotStored},
		{"stored\r\n", ResultNotStored},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSetResponse([]byte(tt.input)))
		})
	}

	assert.Equal(t, "STORED", ResultStored.String())
	assert.Equal(t, "NOT_STORED", ResultNotStored.String())
}

func TestParseStatsResponse(t *testing.T) {
	input := "STAT pid 1234\r\nSTAT uptime 10\r\nSTAT version 1.6.21\r\nEND\r\n"

	stats, err := ParseStatsResponse([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, "STAT pid 1234\r\nSTAT uptime 10\r\nSTAT version 1.6.21", stats)
	assert.NotContains(t, stats, "END")
}

func TestParseStatsResponse_TruncatesAtFirstMarker(t *testing.T) {
	stats, err := ParseStatsResponse([]byte("STAT a 1\r\nEND\r\nSTAT b 2\r\nEND\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "STAT a 1", stats)
}

func TestParseStatsResponse_Empty(t *testing.T) {
	stats, err := ParseStatsResponse([]byte("END\r\n"))
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestParseStatsResponse_Errors(t *testing.T) {
	_, err := ParseStatsResponse([]byte("STAT a 1\r\nSTAT b 2\r\n"))
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)

	_, err = ParseStatsResponse([]byte("SERVER_ERROR busy\r\n"))
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "busy", serverErr.Message)
	assert.False(t, ShouldCloseConnection(err))

	_, err = ParseStatsResponse([]byte("ERROR\r\n"))
	var genericErr *GenericError
	require.ErrorAs(t, err, &genericErr)
}

func TestParseStats(t *testing.T) {
	stats, err := ParseStats("STAT pid 1234\r\nSTAT version 1.6.21\r\nSTAT libevent 2.1.12-stable extra")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"pid":      "1234",
		"version":  "1.6.21",
		"libevent": "2.1.12-stable extra",
	}, stats)

	stats, err = ParseStats("")
	require.NoError(t, err)
	assert.Empty(t, stats)

	_, err = ParseStats("STAT pid 1\r\nGARBAGE")
	require.Error(t, err)

	_, err = ParseStats("STAT lonely")
	require.Error(t, err)
}

func TestParseDeleteResponse(t *testing.T) {
	deleted, err := ParseDeleteResponse([]byte("DELETED\r\n"))
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = ParseDeleteResponse([]byte("NOT_FOUND\r\n"))
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = ParseDeleteResponse([]byte("CLIENT_ERROR bad data chunk\r\n"))
	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, "bad data chunk", clientErr.Message)
	assert.True(t, ShouldCloseConnection(err))

	_, err = ParseDeleteResponse([]byte("WHAT\r\n"))
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)

	_, err = ParseDeleteResponse([]byte("DELE"))
	require.ErrorAs(t, err, &protoErr)
}

func TestParseFlushAllResponse(t *testing.T) {
	require.NoError(t, ParseFlushAllResponse([]byte("OK\r\n")))
	require.Error(t, ParseFlushAllResponse([]byte("ERROR\r\n")))
	require.Error(t, ParseFlushAllResponse([]byte("NOPE\r\n")))
}

func TestParseVersionResponse(t *testing.T) {
	version, err := ParseVersionResponse([]byte("VERSION 1.6.21\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "1.6.21", version)

	_, err = ParseVersionResponse([]byte("VERSION1.6\r\n"))
	require.Error(t, err)
}

func TestComplete_Get(t *testing.T) {
	full := "VALUE x 0 3\r\nabc\r\nEND\r\n"

	for i := range len(full) {
		done, err := Complete(CmdGet, []byte(full[:i]))
		require.NoError(t, err, "prefix %q", full[:i])
		assert.False(t, done, "prefix %q", full[:i])
	}

	done, err := Complete(CmdGet, []byte(full))
	require.NoError(t, err)
	assert.True(t, done)

	done, err = Complete(CmdGet, []byte("END\r\n"))
	require.NoError(t, err)
	assert.True(t, done)

	done, err = Complete(CmdGet, []byte("EN"))
	require.NoError(t, err)
	assert.False(t, done)
}

func TestComplete_GetErrors(t *testing.T) {
	_, err := Complete(CmdGet, []byte("VALUE x 0 2000000\r\n"))
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)

	_, err = Complete(CmdGet, []byte(strings.Repeat("V", maxHeaderSize+1)))
	require.ErrorAs(t, err, &protoErr)
}

func TestComplete_Set(t *testing.T) {
	done, err := Complete(CmdSet, []byte("STOR"))
	require.NoError(t, err)
	assert.False(t, done)

	done, err = Complete(CmdSet, []byte("STORED\r\n"))
	require.NoError(t, err)
	assert.True(t, done)

	done, err = Complete(CmdSet, []byte(strings.Repeat("x", SetChunkSize)))
	require.NoError(t, err)
	assert.True(t, done)
}

func TestComplete_Stats(t *testing.T) {
	tests := []struct {
		input string
		done  bool
	}{
		{"", false},
		{"STAT pid 1\r\n", false},
		{"STAT pid 1\r\nEND", false},
		{"STAT pid 1\r\nEND\r\n", true},
		{"END\r\n", true},
		{"ERROR\r\n", true},
		{"SERVER_ERROR busy\r\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			done, err := Complete(CmdStats, []byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.done, done)
		})
	}

	_, err := Complete(CmdStats, []byte(strings.Repeat("STAT a 1\r\n", maxStatsSize/10+1)))
	require.Error(t, err)
}

func TestComplete_SingleLine(t *testing.T) {
	for _, cmd := range []CmdType{CmdDelete, CmdFlushAll, CmdVersion} {
		done, err := Complete(cmd, []byte("OK"))
		require.NoError(t, err)
		assert.False(t, done)

		done, err = Complete(cmd, []byte("OK\r\n"))
		require.NoError(t, err)
		assert.True(t, done)

		_, err = Complete(cmd, []byte(strings.Repeat("x", maxLineSize+1)))
		require.Error(t, err)
	}
}
