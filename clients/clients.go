package clients

import (
	"crypto/subtle"
	"slices"

	"github.com/pkg/errors"

	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

// Client is the single relying party the bridge serves. It is configured,
// never registered dynamically.
type Client struct {
	ID           string   `json:"id"`
	Secret       string   `json:"-"`
	RedirectURIs []string `json:"redirectURIs"`
	// RequireSecret rejects token requests that present no client secret
	RequireSecret bool `json:"requireSecret"`
}

// New validates and builds the relying party client
func New(id, secret string, redirectURIs []string, requireSecret bool) (*Client, error) {
	if id == "" {
		return nil, errors.New("[clients.New] client id is required")
	}
	if len(redirectURIs) == 0 {
		return nil, errors.New("[clients.New] at least one redirect uri is required")
	}
	if requireSecret && secret == "" {
		return nil, errors.New("[clients.New] client secret is required")
	}
	return &Client{
		ID:            id,
		Secret:        secret,
		RedirectURIs:  slices.Clone(redirectURIs),
		RequireSecret: requireSecret,
	}, nil
}

// AllowsRedirect reports whether uri is registered. Comparison is exact:
// no trailing slash, case or query normalisation.
func (c *Client) AllowsRedirect(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}

// Authenticate checks token endpoint credentials. A presented secret must
// always match; an absent one is accepted only when RequireSecret is off.
func (c *Client) Authenticate(clientID, secret string) error {
	if clientID != c.ID {
		return errors.Wrap(bridgeerrors.ErrInvalidClient, "unknown client")
	}
	if secret == "" {
		if c.RequireSecret {
			return errors.Wrap(bridgeerrors.ErrInvalidClient, "client authentication required")
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(c.Secret)) != 1 {
		return errors.Wrap(bridgeerrors.ErrInvalidClient, "client secret mismatch")
	}
	return nil
}
