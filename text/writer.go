package text

import (
	"fmt"
	"io"
	"strconv"
)

// ValidateKey checks that key is 1-250 bytes with no whitespace or control
// bytes.
func ValidateKey(key string) error {
	keyLen := len(key)

	if keyLen < MinKeyLength {
		return &InvalidKeyError{Message: "key is empty"}
	}

	if keyLen > MaxKeyLength {
		return &InvalidKeyError{Message: "key exceeds maximum length of 250 bytes"}
	}

	for i := 0; i < keyLen; i++ {
		if b := key[i]; b <= ' ' || b == 0x7f {
			return &InvalidKeyError{Message: "key contains whitespace or control character"}
		}
	}

	return nil
}

// ValidateValue checks that data fits the server's item size limit.
func ValidateValue(data []byte) error {
	if len(data) > MaxValueLength {
		return &InvalidValueError{Size: len(data)}
	}
	return nil
}

// AppendRequest appends the wire encoding of req to dst.
//
//	get <key>\r\n
//	set <key> 0 0 <bytes>\r\n<data>\r\n
//	delete <key>\r\n
//	stats\r\n
//	flush_all\r\n
//	version\r\n
//
// Set data is copied verbatim; it is not checked for embedded CRLF since the
// byte count frames it.
func AppendRequest(dst []byte, req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return dst, err
	}

	switch req.Command {
	case CmdGet, CmdDelete:
		dst = append(dst, string(req.Command)...)
		dst = append(dst, Space...)
		dst = append(dst, req.Key...)
		dst = append(dst, CRLF...)

	case CmdSet:
		dst = append(dst, string(req.Command)...)
		dst = append(dst, Space...)
		dst = append(dst, req.Key...)
		dst = append(dst, " 0 0 "...)
		dst = strconv.AppendInt(dst, int64(len(req.Data)), 10)
		dst = append(dst, CRLF...)
		dst = append(dst, req.Data...)
		dst = append(dst, CRLF...)

	case CmdStats, CmdFlushAll, CmdVersion:
		dst = append(dst, string(req.Command)...)
		dst = append(dst, CRLF...)

	default:
		return dst, fmt.Errorf("unsupported command %q", req.Command)
	}

	return dst, nil
}

// EncodedLen returns the exact size of the wire encoding of req.
func EncodedLen(req *Request) int {
	n := len(req.Command) + len(CRLF)
	if req.HasKey() {
		n += len(Space) + len(req.Key)
	}
	if req.Command == CmdSet {
		n += len(" 0 0 ") + len(strconv.Itoa(len(req.Data))) + len(req.Data) + len(CRLF)
	}
	return n
}

// WriteRequest encodes req and writes it to w in a single Write call.
// Returns the number of bytes written.
func WriteRequest(w io.Writer, req *Request) (int, error) {
	buf, err := AppendRequest(make([]byte, 0, EncodedLen(req)), req)
	if err != nil {
		return 0, err
	}
	return w.Write(buf)
}
