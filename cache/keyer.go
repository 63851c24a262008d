package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// Keyer derives cache keys from inbound requests.
//
// Contract:
// - Determinism: identical requests must produce identical keys.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a cache key from the request.
	Key(r *http.Request) (string, error)
}

// RequestKeyer derives keys from the request path and raw query, verbatim.
// Credential headers are deliberately not part of the key, so entries are
// shared across callers regardless of identity. Wrap with CredentialKeyer
// when that sharing is unacceptable.
type RequestKeyer struct{}

// NewRequestKeyer creates a new request keyer.
func NewRequestKeyer() *RequestKeyer {
	return &RequestKeyer{}
}

// Key returns the request path, plus "?" and the raw query when present.
func (k *RequestKeyer) Key(r *http.Request) (string, error) {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// CredentialKeyer scopes keys from an inner Keyer by caller identity.
// Requests carrying any of the configured headers get a key suffixed with
// a SHA-256 digest of the header values, so private payloads are never
// replayed to a differently-credentialed caller. Requests with none of
// the headers keep the inner key unchanged.
type CredentialKeyer struct {
	inner   Keyer
	headers []string
}

// NewCredentialKeyer creates a keyer that scopes inner's keys by the
// given credential headers.
func NewCredentialKeyer(inner Keyer, headers ...string) *CredentialKeyer {
	return &CredentialKeyer{inner: inner, headers: headers}
}

// Key derives the inner key and appends a credential digest when any
// configured header is present.
func (k *CredentialKeyer) Key(r *http.Request) (string, error) {
	key, err := k.inner.Key(r)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	present := false
	for _, name := range k.headers {
		v := r.Header.Get(name)
		if v == "" {
			continue
		}
		present = true
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	if !present {
		return key, nil
	}

	sum := h.Sum(nil)
	return key + "#" + hex.EncodeToString(sum[:8]), nil
}

// Ensure implementations satisfy Keyer
var (
	_ Keyer = (*RequestKeyer)(nil)
	_ Keyer = (*CredentialKeyer)(nil)
)
