package user

import (
	"fmt"
	"strings"
)

// EmailPolicy decides how emails are compared as login keys.
type EmailPolicy string

const (
	// EmailPolicyExact stores and matches emails byte for byte.
	EmailPolicyExact EmailPolicy = "exact"
	// EmailPolicyLowercase trims and lower-cases emails before storing and matching.
	EmailPolicyLowercase EmailPolicy = "lowercase"
)

// ParseEmailPolicy validates a configured policy name. Empty means exact.
func ParseEmailPolicy(s string) (EmailPolicy, error) {
	switch EmailPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", EmailPolicyExact:
		return EmailPolicyExact, nil
	case EmailPolicyLowercase:
		return EmailPolicyLowercase, nil
	default:
		return "", fmt.Errorf("unknown email policy %q", s)
	}
}

// Normalize applies the policy to an email.
func (p EmailPolicy) Normalize(email string) string {
	if p == EmailPolicyLowercase {
		return strings.ToLower(strings.TrimSpace(email))
	}
	return email
}
