package api

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/foldernotes/notes-server/internal/auth"
)

// requireAuth returns an operation middleware that resolves the request
// credential through the gate and attaches the identity to the context.
// Handlers read it back with auth.RequireIdentity or auth.IdentityFrom.
func (s *Server) requireAuth(mode auth.Mode) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		identity, err := s.gate.Authenticate(ctx.Context(), s.credential(ctx), mode)
		if err != nil {
			_ = huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "not authenticated", err)
			return
		}
		if identity != nil {
			ctx = huma.WithContext(ctx, auth.WithIdentity(ctx.Context(), identity))
		}
		next(ctx)
	}
}

// credential extracts the raw credential the way the active strategy
// delivers it: a cookie for sessions, a bearer header for tokens.
func (s *Server) credential(ctx huma.Context) auth.RequestCredential {
	var cred auth.RequestCredential
	if s.gate.Issuer().Strategy() == auth.StrategySession {
		cred.Value, cred.Found = cookieValue(ctx.Header("Cookie"), s.opts.CookieName)
	} else {
		cred.Value, cred.Found = bearerToken(ctx.Header("Authorization"))
	}
	return cred
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
// found reports whether the header was sent at all; token is empty when the
// header is not a well-formed bearer credential.
func bearerToken(header string) (token string, found bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	scheme, rest, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(rest), true
}

// cookieValue returns the named cookie from a raw Cookie header and whether
// it was sent.
func cookieValue(header, name string) (value string, found bool) {
	if header == "" {
		return "", false
	}
	r := &http.Request{Header: http.Header{"Cookie": {header}}}
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

// sessionCookie builds the Set-Cookie value that delivers a session id.
func (s *Server) sessionCookie(cred auth.Credential) string {
	c := &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    cred.Value,
		Path:     "/",
		Expires:  cred.ExpiresAt.UTC(),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	return c.String()
}

// clearedCookie builds the Set-Cookie value that removes the session cookie.
func (s *Server) clearedCookie() string {
	c := &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	return c.String()
}
