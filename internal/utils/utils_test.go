package utils_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/utils"
)

func TestRandomToken(t *testing.T) {
	a, err := utils.RandomToken(32)
	require.NoError(t, err)
	b, err := utils.RandomToken(32)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	require.Len(t, raw, 32)
}

func TestPointers(t *testing.T) {
	require.Equal(t, 0, utils.Value[int](nil))
	require.Equal(t, "x", utils.Value(utils.Ptr("x")))
}
