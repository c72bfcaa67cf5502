// Package federated verifies sign-in assertions issued by external identity
// providers. The authentication service only ever sees a verified Identity;
// provider plumbing (token endpoints, audience checks) stays behind the
// Broker interface.
package federated

import "context"

// Identity is the verified result of a federated sign-in assertion.
type Identity struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// Broker validates an identity token issued by an external provider and
// returns the identity it asserts. Implementations must reject tokens that
// are expired, malformed, or issued for a different audience.
type Broker interface {
	// Verify checks the provider-issued identity token and returns the
	// asserted identity. An unusable token yields common.ErrInvalidToken.
	Verify(ctx context.Context, idToken string) (*Identity, error)
}
