package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archon-trading/spotvenue/internal/venueerrors"
)

func TestAuthenticateUnknownKeyFails(t *testing.T) {
	r := New(map[string]string{"key-a": "user-1"})
	_, err := r.Authenticate("key-b")
	require.Error(t, err)
	require.Equal(t, venueerrors.Auth, venueerrors.KindOf(err))
}

func TestPublicStreamNeedsNoAuth(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Authorize("bogus-token", "BTC-USD@depth"))
	require.True(t, IsPublicStream("BTC-USD@trades"))
}

func TestPrivateStreamRequiresOwningToken(t *testing.T) {
	r := New(map[string]string{"key-a": "user-1"})
	userID, err := r.Authenticate("key-a")
	require.NoError(t, err)
	token := r.IssueToken(userID)

	require.NoError(t, r.Authorize(token, "user-1@order"))
	err = r.Authorize(token, "user-2@order")
	require.Error(t, err)
	require.Equal(t, venueerrors.Forbidden, venueerrors.KindOf(err))
}

func TestSubscribeTracksAndReportsHasSubscribers(t *testing.T) {
	r := New(map[string]string{"key-a": "user-1"})
	token := r.IssueToken("user-1")

	require.False(t, r.HasSubscribers("BTC-USD@depth"))
	n, err := r.Subscribe(token, "BTC-USD@depth")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, r.HasSubscribers("BTC-USD@depth"))

	r.Unsubscribe(token, "BTC-USD@depth")
	require.False(t, r.HasSubscribers("BTC-USD@depth"))
}

func TestRevokeTokenDropsAllSubscriptions(t *testing.T) {
	r := New(map[string]string{"key-a": "user-1"})
	token := r.IssueToken("user-1")
	_, err := r.Subscribe(token, "user-1@order")
	require.NoError(t, err)

	r.RevokeToken(token)
	require.False(t, r.HasSubscribers("user-1@order"))
	_, err = r.UserForToken(token)
	require.Error(t, err)
}
