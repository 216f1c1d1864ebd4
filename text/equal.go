package text

import "bytes"

// Equal reports whether two values are byte-for-byte identical.
// Values of different lengths are never equal.
func Equal(a, b []byte) bool {
	return len(a) == len(b) && bytes.Equal(a, b)
}
