// Package registry is the venue's subscription/auth boundary: it maps
// API keys to user identities, mints opaque session tokens, and tracks
// which user owns which live stream subscription so notify can ask
// "does anyone care about this stream" before doing real work.
// google/uuid.New() supplies the opaque token format.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/archon-trading/spotvenue/internal/venueerrors"
)

// Registry holds API-key identity mapping, session tokens, and stream
// subscription ownership behind one RWMutex.
type Registry struct {
	mu sync.RWMutex

	apiKeys map[string]string // api key -> user id
	tokens  map[string]string // token -> user id

	// subs maps stream key (e.g. "BTC-USD@depth", "user123@order") to
	// the set of token strings currently subscribed to it.
	subs map[string]map[string]struct{}
}

// New builds an empty Registry. api key to user id mappings are seeded
// once at startup from configuration/secrets management, never mutated
// at request time by this type.
func New(apiKeys map[string]string) *Registry {
	seeded := make(map[string]string, len(apiKeys))
	for k, v := range apiKeys {
		seeded[k] = v
	}
	return &Registry{
		apiKeys: seeded,
		tokens:  make(map[string]string),
		subs:    make(map[string]map[string]struct{}),
	}
}

// Authenticate resolves an API key to a user id, or AUTH error if unknown.
func (r *Registry) Authenticate(apiKey string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.apiKeys[apiKey]
	if !ok {
		return "", venueerrors.New(venueerrors.Auth, "unknown api key")
	}
	return userID, nil
}

// IssueToken mints a new opaque session token bound to userID.
func (r *Registry) IssueToken(userID string) string {
	token := uuid.New().String()
	r.mu.Lock()
	r.tokens[token] = userID
	r.mu.Unlock()
	return token
}

// RevokeToken invalidates a session token and drops every subscription
// it held.
func (r *Registry) RevokeToken(token string) {
	r.mu.Lock()
	delete(r.tokens, token)
	for stream, holders := range r.subs {
		delete(holders, token)
		if len(holders) == 0 {
			delete(r.subs, stream)
		}
	}
	r.mu.Unlock()
}

// UserForToken resolves a session token back to its owning user id.
func (r *Registry) UserForToken(token string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.tokens[token]
	if !ok {
		return "", venueerrors.New(venueerrors.Auth, "unknown or expired token")
	}
	return userID, nil
}

// IsPublicStream reports whether a stream key needs no auth at all —
// market data (depth, trades) is public; private account/order streams
// require a token whose owning user matches the stream's user segment.
func IsPublicStream(streamKey string) bool {
	return !isPrivateStream(streamKey)
}

// Authorize checks that token grants access to streamKey: public
// streams always pass; private per-user streams require the token's
// owning user to match the `<userID>@...` stream's user segment.
func (r *Registry) Authorize(token, streamKey string) error {
	if IsPublicStream(streamKey) {
		return nil
	}
	userID, err := r.UserForToken(token)
	if err != nil {
		return err
	}
	owner := streamOwner(streamKey)
	if owner != userID {
		return venueerrors.New(venueerrors.Forbidden, "token does not own this stream").WithDetail("stream", streamKey)
	}
	return nil
}

// Subscribe records that token is now watching streamKey, after an
// Authorize check. Returns the stream's new subscriber count.
func (r *Registry) Subscribe(token, streamKey string) (int, error) {
	if err := r.Authorize(token, streamKey); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	holders, ok := r.subs[streamKey]
	if !ok {
		holders = make(map[string]struct{})
		r.subs[streamKey] = holders
	}
	holders[token] = struct{}{}
	return len(holders), nil
}

// Unsubscribe drops token's interest in streamKey.
func (r *Registry) Unsubscribe(token, streamKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	holders, ok := r.subs[streamKey]
	if !ok {
		return
	}
	delete(holders, token)
	if len(holders) == 0 {
		delete(r.subs, streamKey)
	}
}

// HasSubscribers reports whether streamKey currently has at least one
// live subscriber, letting notify skip expensive work (e.g. depth
// aggregation) for streams nobody is watching.
func (r *Registry) HasSubscribers(streamKey string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	holders, ok := r.subs[streamKey]
	return ok && len(holders) > 0
}
