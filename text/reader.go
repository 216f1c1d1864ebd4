package text

import (
	"bytes"
	"strconv"
	"strings"
)

// Pre-allocated byte slices for comparisons (avoid allocation in hot path)
var (
	crlfBytes         = []byte(CRLF)
	valuePrefixBytes  = []byte(ValuePrefix)
	storedBytes       = []byte(StatusStored + CRLF)
	endLineBytes      = []byte(EndMarker + CRLF)
	statsMarkerBytes  = []byte(CRLF + EndMarker)
	statsEndBytes     = []byte(CRLF + EndMarker + CRLF)
	errorGenericBytes = []byte(ErrorGeneric)
	clientErrorPrefix = []byte(ErrorClientPrefix + " ")
	serverErrorPrefix = []byte(ErrorServerPrefix + " ")
)

// Complete reports whether buf holds an entire response to cmd.
//
// A get hit is complete once the data block and the CRLF END CRLF trailer
// length have arrived; the trailer content is not checked. A set response
// is complete at its first CRLF, or once SetChunkSize bytes arrived without
// one (it then decodes as not stored). A stats response is complete at its
// END line. Every other response is one line.
//
// Returns a ProtocolError when buf has grown past the bound for cmd.
func Complete(cmd CmdType, buf []byte) (bool, error) {
	lineEnd := bytes.Index(buf, crlfBytes)

	switch cmd {
	case CmdGet:
		if lineEnd == -1 {
			if len(buf) > maxHeaderSize {
				return false, &ProtocolError{Message: "response line exceeds " + strconv.Itoa(maxHeaderSize) + " bytes"}
			}
			return false, nil
		}
		if !bytes.HasPrefix(buf, valuePrefixBytes) {
			return true, nil
		}
		_, _, dataLen, err := parseValueHeader(buf[:lineEnd])
		if err != nil {
			return false, err
		}
		return len(buf) >= lineEnd+len(CRLF)+dataLen+len(getTrailer), nil

	case CmdSet:
		return lineEnd != -1 || len(buf) >= SetChunkSize, nil

	case CmdStats:
		if bytes.HasPrefix(buf, endLineBytes) || bytes.Contains(buf, statsEndBytes) {
			return true, nil
		}
		if lineEnd != -1 && parseErrorLine(buf[:lineEnd]) != nil {
			return true, nil
		}
		if len(buf) > maxStatsSize {
			return false, &ProtocolError{Message: "stats response exceeds " + strconv.Itoa(maxStatsSize) + " bytes"}
		}
		return false, nil

	default:
		if lineEnd == -1 && len(buf) > maxLineSize {
			return false, &ProtocolError{Message: "response line exceeds " + strconv.Itoa(maxLineSize) + " bytes"}
		}
		return lineEnd != -1, nil
	}
}

// ParseGetResponse decodes a get response.
//
// Anything not starting with VALUE is a miss. Otherwise the header
// "VALUE <key> <flags> <bytes>" gives the data length, and the data starts
// right after the header CRLF. Whatever follows the data is ignored.
//
// Returns a ProtocolError when the header is malformed or the declared data
// extends past the end of buf.
func ParseGetResponse(buf []byte) (GetResult, error) {
	if !bytes.HasPrefix(buf, valuePrefixBytes) {
		return GetResult{}, nil
	}

	lineEnd := bytes.Index(buf, crlfBytes)
	if lineEnd == -1 {
		return GetResult{}, &ProtocolError{Message: "VALUE header missing terminator"}
	}

	key, flags, dataLen, err := parseValueHeader(buf[:lineEnd])
	if err != nil {
		return GetResult{}, err
	}

	start := lineEnd + len(CRLF)
	end := start + dataLen
	if end > len(buf) {
		return GetResult{}, &ProtocolError{
			Message: "data block of " + strconv.Itoa(dataLen) + " bytes exceeds received " + strconv.Itoa(len(buf)-start),
		}
	}

	return GetResult{
		Found: true,
		Key:   key,
		Flags: flags,
		Data:  buf[start:end:end],
	}, nil
}

// parseValueHeader parses "VALUE <key> <flags> <bytes>[ <cas>]" without CRLF.
func parseValueHeader(line []byte) (key string, flags uint32, dataLen int, err error) {
	fields := bytes.Split(line, []byte(Space))
	if len(fields) < 4 || !bytes.Equal(fields[0], valuePrefixBytes) {
		return "", 0, 0, &ProtocolError{Message: "malformed VALUE header: " + strconv.Quote(string(line))}
	}

	if len(fields[1]) == 0 {
		return "", 0, 0, &ProtocolError{Message: "VALUE header missing key"}
	}

	f, err := strconv.ParseUint(string(fields[2]), 10, 32)
	if err != nil {
		return "", 0, 0, &ProtocolError{Message: "invalid flags in VALUE header", Err: err}
	}

	n, err := strconv.ParseUint(string(fields[3]), 10, 64)
	if err != nil {
		return "", 0, 0, &ProtocolError{Message: "invalid size in VALUE header", Err: err}
	}
	if n > MaxValueLength {
		return "", 0, 0, &ProtocolError{Message: "size in VALUE header exceeds " + strconv.Itoa(MaxValueLength)}
	}

	return string(fields[1]), uint32(f), int(n), nil
}

// ParseSetResponse decodes a set response. Only the exact bytes "STORED\r\n"
// mean stored; NOT_STORED, error lines, partial or empty reads all decode as
// not stored.
func ParseSetResponse(buf []byte) StoreResult {
	if bytes.Equal(buf, storedBytes) {
		return ResultStored
	}
	return ResultNotStored
}

// ParseStatsResponse returns the stats text up to, not including, the first
// CRLF END marker. A bare END line is an empty result.
func ParseStatsResponse(buf []byte) (string, error) {
	if bytes.HasPrefix(buf, endLineBytes) {
		return "", nil
	}

	if lineEnd := bytes.Index(buf, crlfBytes); lineEnd != -1 {
		if err := parseErrorLine(buf[:lineEnd]); err != nil {
			return "", err
		}
	}

	end := bytes.Index(buf, statsMarkerBytes)
	if end == -1 {
		return "", &ProtocolError{Message: "stats response missing END marker"}
	}

	return string(buf[:end]), nil
}

// ParseStats splits stats text into a map of stat names to values.
// Lines have the form "STAT <name> <value>"; the value may contain spaces.
func ParseStats(text string) (map[string]string, error) {
	stats := make(map[string]string)

	for line := range strings.SplitSeq(text, CRLF) {
		if line == "" {
			continue
		}

		statLine, ok := strings.CutPrefix(line, StatPrefix+Space)
		if !ok {
			return stats, &ProtocolError{Message: "invalid stats response line: " + line}
		}

		name, value, ok := strings.Cut(statLine, Space)
		if !ok {
			return stats, &ProtocolError{Message: "invalid STAT line format: " + line}
		}

		stats[name] = value
	}

	return stats, nil
}

// ParseDeleteResponse decodes a delete response: true for DELETED, false
// for NOT_FOUND.
func ParseDeleteResponse(buf []byte) (bool, error) {
	line, err := singleLine(buf)
	if err != nil {
		return false, err
	}

	switch string(line) {
	case StatusDeleted:
		return true, nil
	case StatusNotFound:
		return false, nil
	default:
		return false, &ProtocolError{Message: "unexpected delete response: " + strconv.Quote(string(line))}
	}
}

// ParseFlushAllResponse decodes a flush_all response.
func ParseFlushAllResponse(buf []byte) error {
	line, err := singleLine(buf)
	if err != nil {
		return err
	}

	if string(line) != StatusOK {
		return &ProtocolError{Message: "unexpected flush_all response: " + strconv.Quote(string(line))}
	}
	return nil
}

// ParseVersionResponse decodes "VERSION <version>" and returns the version.
func ParseVersionResponse(buf []byte) (string, error) {
	line, err := singleLine(buf)
	if err != nil {
		return "", err
	}

	version, ok := strings.CutPrefix(string(line), VersionPrefix+Space)
	if !ok {
		return "", &ProtocolError{Message: "unexpected version response: " + strconv.Quote(string(line))}
	}
	return version, nil
}

// singleLine returns the first line of buf without CRLF, or the error the
// line carries.
func singleLine(buf []byte) ([]byte, error) {
	lineEnd := bytes.Index(buf, crlfBytes)
	if lineEnd == -1 {
		return nil, &ProtocolError{Message: "response missing line terminator"}
	}

	line := buf[:lineEnd]
	if err := parseErrorLine(line); err != nil {
		return nil, err
	}
	return line, nil
}

// parseErrorLine maps ERROR, CLIENT_ERROR and SERVER_ERROR lines to errors.
// Returns nil for any other line.
func parseErrorLine(line []byte) error {
	if bytes.Equal(line, errorGenericBytes) {
		return &GenericError{Message: ErrorGeneric}
	}

	if msg, ok := bytes.CutPrefix(line, clientErrorPrefix); ok {
		return &ClientError{Message: string(msg)}
	}

	if msg, ok := bytes.CutPrefix(line, serverErrorPrefix); ok {
		return &ServerError{Message: string(msg)}
	}

	return nil
}
