// Package mail generates one-time link tokens and hands outgoing mail to
// the delivery queue. A separate consumer process does the actual sending.
package mail

import (
	"context"
	"net/url"
	"strings"
)

// TokenDelimiter joins a generated token and the caller supplied extra.
const TokenDelimiter = "_._"

// TokenLength is the length of the random part of a link token.
const TokenLength = 32

// Request describes one outgoing message with an embedded link.
type Request struct {
	Subject   string
	Message   string
	Recipient string
	// LinkBase is a URL ending in a query parameter name; the token is
	// appended after "=".
	LinkBase string
	// Extra, when set, is appended to the token after TokenDelimiter.
	Extra string
}

// Dispatcher sends a message and returns the token embedded in its link.
type Dispatcher interface {
	SendAndGenerate(ctx context.Context, req Request) (string, error)
}

// JoinToken builds the composite token "<token>_._<extra>".
func JoinToken(token, extra string) string {
	if extra == "" {
		return token
	}

	return token + TokenDelimiter + extra
}

// SplitToken reverses JoinToken. ok is false unless both parts are present.
func SplitToken(combined string) (token, extra string, ok bool) {
	token, extra, found := strings.Cut(combined, TokenDelimiter)
	if !found || token == "" || extra == "" {
		return "", "", false
	}

	return token, extra, true
}

// BuildLink appends token to base as the value of its trailing parameter.
func BuildLink(base, token string) string {
	return base + "=" + url.QueryEscape(token)
}
