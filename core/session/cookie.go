package session

import (
	"strings"

	"github.com/gofrs/uuid/v5"

	"restaurant-manager/core/utils"
)

const cookieSigningPurpose = "restaurant-manager/session-cookie"

func newID() string {
	id, err := uuid.NewV4()
	if err != nil {
		panic("session: uuid generation failed: " + err.Error())
	}
	return id.String()
}

func newCSRFToken() string {
	tok, err := utils.RandString(32)
	if err != nil {
		panic("session: csrf token generation failed: " + err.Error())
	}
	return tok
}

type cookieSigner struct {
	key []byte
}

func newCookieSigner(secret string) (*cookieSigner, error) {
	key, err := utils.DeriveKey(secret, cookieSigningPurpose, 32)
	if err != nil {
		return nil, err
	}
	return &cookieSigner{key: key}, nil
}

func (c *cookieSigner) encode(id string) string {
	return id + "." + utils.SignHMAC(c.key, id)
}

// decode returns the session id of a well-formed, correctly signed cookie value.
func (c *cookieSigner) decode(value string) (string, bool) {
	idx := strings.LastIndexByte(value, '.')
	if idx <= 0 || idx == len(value)-1 {
		return "", false
	}
	id, sig := value[:idx], value[idx+1:]
	if _, err := uuid.FromString(id); err != nil {
		return "", false
	}
	if !utils.VerifyHMAC(c.key, id, sig) {
		return "", false
	}
	return id, true
}
