package services

// AuthenticateResponse is returned by every operation that establishes a
// session: a signed access token, the opaque refresh token that can renew
// it, and the access token's expiry as epoch seconds so clients can schedule
// renewal without decoding the JWT.
type AuthenticateResponse struct {
	UserID                string
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiration int64

	// EmailConfirmationToken is set only on registration, for transports
	// that hand the confirmation link straight back to the caller instead
	// of relying on email delivery.
	EmailConfirmationToken string

	// Message is an optional caller-presentable note (e.g. a prompt to
	// confirm the email address).
	Message string
}

// APIResponse is the envelope the hosting transport wraps operation results
// in: an HTTP-ish status code plus the result payload.
type APIResponse struct {
	StatusCode int
	Result     any
}

// NewAPIResponse builds a response envelope.
func NewAPIResponse(statusCode int, result any) *APIResponse {
	return &APIResponse{StatusCode: statusCode, Result: result}
}

// ResultOutcome reports whether a non-session operation succeeded, with
// caller-presentable reasons when it did not.
type ResultOutcome struct {
	Succeeded bool
	Errors    []string
}

// Succeeded returns an outcome with no errors.
func Succeeded() *ResultOutcome {
	return &ResultOutcome{Succeeded: true}
}

// Failed returns an outcome carrying the given reasons.
func Failed(reasons ...string) *ResultOutcome {
	return &ResultOutcome{Succeeded: false, Errors: reasons}
}
