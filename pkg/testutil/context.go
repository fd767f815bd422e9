package testutil

import (
	"context"
	"net/http"
	"time"

	id "parcours/pkg/domain"
	"parcours/pkg/requestcontext"
)

// WithActor adds the acting matricule to the request context, as the auth
// middleware does for authenticated requests.
func WithActor(req *http.Request, matricule string) *http.Request {
	m, err := id.ParseMatricule(matricule)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithActor(req.Context(), m))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}

// CommandContext is the context a service test runs a command under: a
// fixed clock and an acting matricule.
func CommandContext(now time.Time, actor id.Matricule) context.Context {
	ctx := requestcontext.WithTime(context.Background(), now)
	return requestcontext.WithActor(ctx, actor)
}
