package security

import "crypto/subtle"

// CheckAdminSecret compares a presented admin secret against the configured
// one in constant time. An unconfigured secret always fails, so the rotation
// trigger cannot be left open by omission
func CheckAdminSecret(configured, presented string) bool {
	if configured == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}
