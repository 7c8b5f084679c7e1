package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

const headerPrefix = "HMAC "

// Rejection reasons, exposed only as stable labels for metrics and debug
// logging. Callers must collapse every rejection into the same
// unauthenticated response, the reason never changes request handling.
const (
	ReasonMissingHeader     = "missing_header"
	ReasonMalformedEncoding = "malformed_encoding"
	ReasonNoMatch           = "no_match"
)

// Outcome is the result of one verification call. It carries no secret
// material.
type Outcome struct {
	// Matched reports whether any candidate authenticated the claim.
	Matched bool
	// Candidate is the label of the matched candidate, empty on rejection.
	Candidate string

	reason string
}

// Reason returns a stable label describing why verification failed, or an
// empty string on success.
func (o Outcome) Reason() string {
	return o.reason
}

// Verifier authenticates incoming webhook calls against the shared secret of
// the outgoing webhook. It is immutable after construction and safe for
// unbounded concurrent use.
type Verifier struct {
	key []byte
}

// NewVerifier decodes the configured secret according to the encoding mode
// ("base64" or "plain") and returns a ready verifier. The encoding is a fixed
// deployment choice, an empty mode means base64.
func NewVerifier(secret, encoding string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("webhook secret must not be empty")
	}

	switch encoding {
	case "base64", "":
		key, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			return nil, fmt.Errorf("webhook secret is not valid base64: %w", err)
		}
		return &Verifier{key: key}, nil
	case "plain":
		return &Verifier{key: []byte(secret)}, nil
	default:
		return nil, fmt.Errorf("unknown secret encoding '%s'", encoding)
	}
}

// Verify decides whether the claimed signature in the authorization header
// authenticates the received body. The body must be the exact bytes from the
// wire, any prior transcoding or trimming invalidates verification.
//
// Every rejection collapses into Matched == false, Verify never returns an
// error. Comparisons use hmac.Equal, so timing does not depend on where a
// forged signature differs from a computed one.
func (v *Verifier) Verify(body []byte, header string) Outcome {
	encoded, ok := cutHeaderPrefix(header)
	if !ok {
		return Outcome{reason: ReasonMissingHeader}
	}

	claim, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Outcome{reason: ReasonMalformedEncoding}
	}

	for _, c := range Candidates(body) {
		mac := hmac.New(sha256.New, v.key)
		mac.Write(c.Bytes)
		if hmac.Equal(mac.Sum(nil), claim) {
			return Outcome{Matched: true, Candidate: c.Label}
		}
	}

	return Outcome{reason: ReasonNoMatch}
}

// cutHeaderPrefix strips the case-insensitive "HMAC " scheme prefix and
// reports whether a non-empty signature remains.
func cutHeaderPrefix(header string) (string, bool) {
	if len(header) < len(headerPrefix) || !strings.EqualFold(header[:len(headerPrefix)], headerPrefix) {
		return "", false
	}
	encoded := strings.TrimSpace(header[len(headerPrefix):])
	return encoded, encoded != ""
}
