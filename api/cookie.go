package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/racetrack/internal/util"
)

// cookieSigner signs session ids as "<id>.<base64url HMAC-SHA256>". The
// signing key is derived from the session secret and kept in a memguard
// enclave.
type cookieSigner struct {
	key *memguard.Enclave
}

func newCookieSigner(secret []byte) (*cookieSigner, error) {
	key, err := util.HKDF(secret, nil, []byte(util.InfoCookieSigning))
	if err != nil {
		return nil, err
	}
	// NewEnclave wipes key.
	return &cookieSigner{key: memguard.NewEnclave(key)}, nil
}

func (c *cookieSigner) sign(id string) (string, error) {
	mac, err := c.mac(id)
	if err != nil {
		return "", err
	}
	return id + "." + base64.RawURLEncoding.EncodeToString(mac), nil
}

// verify returns the session id carried by a signed cookie value.
func (c *cookieSigner) verify(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 {
		return "", false
	}
	id, encoded := value[:i], value[i+1:]
	sig, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	want, err := c.mac(id)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(sig, want) {
		return "", false
	}
	return id, true
}

func (c *cookieSigner) mac(id string) ([]byte, error) {
	buf, err := c.key.Open()
	if err != nil {
		return nil, fmt.Errorf("opening cookie key enclave: %w", err)
	}
	defer buf.Destroy()
	h := hmac.New(sha256.New, buf.Bytes())
	h.Write([]byte(id))
	return h.Sum(nil), nil
}
