package clients_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/wallet-oidc-bridge/clients"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

func TestNew_Validation(t *testing.T) {
	_, err := clients.New("", "s", []string{"https://rp/cb"}, true)
	require.Error(t, err)
	_, err = clients.New("c1", "s", nil, true)
	require.Error(t, err)
	_, err = clients.New("c1", "", []string{"https://rp/cb"}, true)
	require.Error(t, err)
	_, err = clients.New("c1", "", []string{"https://rp/cb"}, false)
	require.NoError(t, err)
}

func TestAllowsRedirect_ExactMatch(t *testing.T) {
	uris := []string{"https://rp/cb"}
	client, err := clients.New("c1", "s", uris, true)
	require.NoError(t, err)
	uris[0] = "mutated"

	require.True(t, client.AllowsRedirect("https://rp/cb"))
	require.False(t, client.AllowsRedirect("https://rp/cb/"))
	require.False(t, client.AllowsRedirect("HTTPS://rp/cb"))
	require.False(t, client.AllowsRedirect("https://rp/cb?x=1"))
}

func TestAuthenticate(t *testing.T) {
	strict, err := clients.New("c1", "secret", []string{"https://rp/cb"}, true)
	require.NoError(t, err)
	require.NoError(t, strict.Authenticate("c1", "secret"))
	require.True(t, errors.Is(strict.Authenticate("c1", ""), errors.ErrInvalidClient))
	require.True(t, errors.Is(strict.Authenticate("c1", "wrong"), errors.ErrInvalidClient))
	require.True(t, errors.Is(strict.Authenticate("c2", "secret"), errors.ErrInvalidClient))

	lax, err := clients.New("c1", "secret", []string{"https://rp/cb"}, false)
	require.NoError(t, err)
	require.NoError(t, lax.Authenticate("c1", ""))
	require.True(t, errors.Is(lax.Authenticate("c1", "wrong"), errors.ErrInvalidClient))
}
