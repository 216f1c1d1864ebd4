// Package text implements the wire format of the memcached text protocol
// for the single-key commands get, set and delete plus stats, flush_all and
// version.
//
// It does no I/O of its own beyond WriteRequest. Callers own the
// connection: they encode with AppendRequest, accumulate received bytes
// until Complete reports a whole response, then decode with the Parse
// functions.
//
// # Encoding
//
//	buf, err := text.AppendRequest(nil, text.NewSetRequest("x", []byte("abc")))
//	// buf == "set x 0 0 3\r\nabc\r\n"
//
// # Framing and decoding
//
//	var resp []byte
//	for {
//	    n, err := conn.Read(chunk)
//	    ...
//	    resp = append(resp, chunk[:n]...)
//	    if done, err := text.Complete(text.CmdGet, resp); err != nil || done {
//	        break
//	    }
//	}
//	res, err := text.ParseGetResponse(resp)
//	if res.Found {
//	    value := res.Data
//	}
//
// # Error Handling
//
// Every error type reports whether the connection it occurred on must be
// closed:
//
//   - ConnectionError: resolve, dial or I/O failure, CLOSE connection
//   - TransmitIncompleteError: short write, CLOSE connection
//   - ProtocolError: unparsable or out of bounds response, CLOSE connection
//   - ClientError, GenericError: server rejected the command, CLOSE connection
//   - ServerError: server-side failure, connection can be REUSED
//   - InvalidKeyError, InvalidValueError: rejected before sending, REUSE
//
// A miss (get) and a refusal to store (set) are results, not errors.
package text
