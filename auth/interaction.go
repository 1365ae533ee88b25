package auth

import (
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/wallet-oidc-bridge/oauthmodel"
)

const (
	userCodeLength = 8
	// no 0/O or 1/I so codes survive being read aloud
	userCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Interaction is a pending authorization request parked while the browser
// logs in or waits for approval.
type Interaction struct {
	UID       string                             `json:"uid"`
	UserCode  string                             `json:"userCode"`
	Params    oauthmodel.AuthorizationParameters `json:"params"`
	AccountID string                             `json:"accountId,omitempty"`
	CreatedAt time.Time                          `json:"createdAt"`
	ExpiresAt time.Time                          `json:"expiresAt"`
}

func (i *Interaction) encode() ([]byte, error) {
	return json.Marshal(i)
}

func decodeInteraction(payload []byte) (*Interaction, error) {
	var i Interaction
	if err := json.Unmarshal(payload, &i); err != nil {
		return nil, errors.Wrap(err, "decode interaction")
	}
	return &i, nil
}

// userCodeFragment is the encoded userCode field as it appears in a payload,
// so a code embedded in another interaction's state or redirect URI is never
// matched. Codes are drawn from userCodeAlphabet and need no JSON escaping.
func userCodeFragment(userCode string) string {
	return `"userCode":"` + userCode + `"`
}

func newUserCode() (string, error) {
	b := make([]byte, userCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "newUserCode rand.Read")
	}
	for i := range b {
		b[i] = userCodeAlphabet[int(b[i])%len(userCodeAlphabet)]
	}
	return string(b), nil
}
