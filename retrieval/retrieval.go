// Package retrieval defines the knowledge-retrieval capability consumed by
// the tool invocation bridge. The capability is a black box: given a domain
// and a query it returns generated text grounded in that domain's knowledge
// base. Implementations live in the gateway and bedrock subpackages.
package retrieval

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnauthorized marks an authorization failure from the retrieval backend.
// The bridge distinguishes it from other failures to force a credential
// refresh before its retry.
var ErrUnauthorized = errors.New("retrieval: unauthorized")

// UnauthorizedError is an authorization failure that carries the bearer
// token the backend rejected, so the bridge can discard exactly that token
// from the shared cache without racing a concurrent refresh. It matches
// ErrUnauthorized under errors.Is.
type UnauthorizedError struct {
	// Token is the rejected bearer token. Empty when the implementation does
	// not authenticate with cached credentials.
	Token string
}

func (e *UnauthorizedError) Error() string { return ErrUnauthorized.Error() }

// Is reports a match against the ErrUnauthorized sentinel.
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// ErrUnknownDomain marks a query against a domain with no configured
// knowledge base.
var ErrUnknownDomain = errors.New("retrieval: unknown domain")

// Retriever answers a query against a domain-scoped knowledge base. An empty
// result string is a valid "no results" success, distinct from an error.
type Retriever interface {
	Retrieve(ctx context.Context, domain, query string) (string, error)
}

// Func adapts a plain function to the Retriever interface.
type Func func(ctx context.Context, domain, query string) (string, error)

// Retrieve implements Retriever.
func (f Func) Retrieve(ctx context.Context, domain, query string) (string, error) {
	return f(ctx, domain, query)
}

// Static serves canned responses per domain; domains without an entry fall
// back to a generic notice. Useful for tests and local development without a
// deployed knowledge base.
type Static struct {
	Responses map[string]string
}

// Retrieve implements Retriever.
func (s Static) Retrieve(_ context.Context, domain, query string) (string, error) {
	if resp, ok := s.Responses[domain]; ok {
		return resp, nil
	}
	return fmt.Sprintf("No knowledge base is configured for domain %q; answer %q from general expertise.", domain, query), nil
}
