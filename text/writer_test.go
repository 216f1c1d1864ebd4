package text

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      *Request
		expected string
	}{
		{
			name:     "get",
			req:      NewGetRequest("mykey"),
			expected: "get mykey\r\n",
		},
		{
			name:     "set",
			req:      NewSetRequest("x", []byte("abc")),
			expected: "set x 0 0 3\r\nabc\r\n",
		},
		{
			name:     "set empty value",
			req:      NewSetRequest("x", nil),
			expected: "set x 0 0 0\r\n\r\n",
		},
		{
			name:     "set value with embedded crlf",
			req:      NewSetRequest("x", []byte("a\r\nb")),
			expected: "set x 0 0 4\r\na\r\nb\r\n",
		},
		{
			name:     "stats",
			req:      NewStatsRequest(),
			expected: "stats\r\n",
		},
		{
			name:     "delete",
			req:      NewDeleteRequest("mykey"),
			expected: "delete mykey\r\n",
		},
		{
			name:     "flush_all",
			req:      NewFlushAllRequest(),
			expected: "flush_all\r\n",
		},
		{
			name:     "version",
			req:      NewVersionRequest(),
			expected: "version\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := AppendRequest(nil, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(buf))
			assert.Equal(t, len(tt.expected), EncodedLen(tt.req))
		})
	}
}

func TestAppendRequest_AppendsToDst(t *testing.T) {
	buf, err := AppendRequest([]byte("prefix|"), NewGetRequest("k"))
	require.NoError(t, err)
	assert.Equal(t, "prefix|get k\r\n", string(buf))
}

func TestAppendRequest_UnsupportedCommand(t *testing.T) {
	_, err := AppendRequest(nil, &Request{Command: "gets"})
	require.Error(t, err)
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		valid bool
	}{
		{"valid key", "foo", true},
		{"exactly 250 bytes", strings.Repeat("a", MaxKeyLength), true},
		{"251 bytes", strings.Repeat("a", MaxKeyLength+1), false},
		{"empty key", "", false},
		{"key with space", "foo bar", false},
		{"key with tab", "foo\tbar", false},
		{"key with newline", "foo\nbar", false},
		{"key with carriage return", "foo\rbar", false},
		{"key with null", "foo\x00bar", false},
		{"key with DEL", "foo\x7fbar", false},
		{"unicode key", "test-ключ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var keyErr *InvalidKeyError
			assert.ErrorAs(t, err, &keyErr)
		})
	}
}

func TestValidateValue(t *testing.T) {
	require.NoError(t, ValidateValue(make([]byte, MaxValueLength)))

	err := ValidateValue(make([]byte, MaxValueLength+1))
	var valueErr *InvalidValueError
	require.ErrorAs(t, err, &valueErr)
	assert.Equal(t, MaxValueLength+1, valueErr.Size)
	assert.False(t, ShouldCloseConnection(err))
}

func TestAppendRequest_RejectsBeforeEncoding(t *testing.T) {
	dst := []byte("keep")

	out, err := AppendRequest(dst, NewSetRequest(strings.Repeat("k", MaxKeyLength+1), []byte("v")))
	require.Error(t, err)
	assert.Equal(t, "keep", string(out))

	out, err = AppendRequest(dst, NewSetRequest("k", make([]byte, MaxValueLength+1)))
	require.Error(t, err)
	assert.Equal(t, "keep", string(out))

	out, err = AppendRequest(nil, NewSetRequest("k", make([]byte, MaxValueLength)))
	require.NoError(t, err)
	assert.Len(t, out, EncodedLen(NewSetRequest("k", make([]byte, MaxValueLength))))
}

func TestWriteRequest(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteRequest(&buf, NewSetRequest("x", []byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)
	assert.Equal(t, "set x 0 0 3\r\nabc\r\n", buf.String())

	buf.Reset()
	n, err = WriteRequest(&buf, NewGetRequest("bad key"))
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Zero(t, buf.Len())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal([]byte("abc"), []byte("abc")))
	assert.True(t, Equal(nil, []byte{}))
	assert.False(t, Equal([]byte("abc"), []byte("abd")))
	assert.False(t, Equal([]byte("abc"), []byte("ab")))
	assert.False(t, Equal([]byte("ab"), []byte("abc")))
}
