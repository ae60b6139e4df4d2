// Package icrypto builds the associated data bound to sealed records.
package icrypto

import (
	"encoding/binary"
)

const (
	aadSession = "SESSION"

	// SessionFormat is the version of the sealed session encoding.
	SessionFormat = 1
)

// AADSession binds a sealed session to its id and encoding version, so an
// envelope copied under another id fails to open.
func AADSession(sessionID string, ver int) []byte {
	return buildAAD(aadSession, sessionID, ver)
}

// buildAAD length-prefixes strings and writes integers big-endian so that
// no two distinct part lists encode to the same bytes.
func buildAAD(parts ...any) []byte {
	var res []byte
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			res = appendLenPrefix(res, []byte(v))
		case []byte:
			res = appendLenPrefix(res, v)
		case uint64:
			res = binary.BigEndian.AppendUint64(res, v)
		case int:
			res = binary.BigEndian.AppendUint32(res, uint32(v))
		}
	}
	return res
}

func appendLenPrefix(b, data []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(data)))
	return append(b, data...)
}
