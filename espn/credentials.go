package espn

import (
	"context"
	"net/http"
)

// Header names carrying the two opaque auth cookie values ESPN issues to
// a logged-in user. Absent headers restrict access to public leagues.
const (
	HeaderESPNS2 = "X-ESPN-S2"
	HeaderSWID   = "X-ESPN-SWID"
)

// Credentials are the caller's upstream auth tokens. Both values are
// opaque to the proxy; they are forwarded as cookies and never validated
// locally.
type Credentials struct {
	ESPNS2 string
	SWID   string
}

// Present reports whether any credential token is set.
func (c Credentials) Present() bool {
	return c.ESPNS2 != "" || c.SWID != ""
}

type contextKey int

const credentialsKey contextKey = iota

// WithCredentials returns a new context with the given credentials attached.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey, creds)
}

// CredentialsFromContext retrieves credentials from the context.
// Returns zero Credentials if none are present.
func CredentialsFromContext(ctx context.Context) Credentials {
	creds, _ := ctx.Value(credentialsKey).(Credentials)
	return creds
}

// WithCredentialHeaders is HTTP middleware that extracts the optional
// credential headers into the request context for the upstream client.
func WithCredentialHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := Credentials{
			ESPNS2: r.Header.Get(HeaderESPNS2),
			SWID:   r.Header.Get(HeaderSWID),
		}
		if creds.Present() {
			r = r.WithContext(WithCredentials(r.Context(), creds))
		}
		next.ServeHTTP(w, r)
	})
}
