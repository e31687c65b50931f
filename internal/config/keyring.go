package config

import "github.com/zalando/go-keyring"

const (
	// keyringService is the service name used in the OS keyring.
	keyringService = "wingman"

	// keyringToken is the key name for the model bearer token.
	keyringToken = "bearer_token"
)

// Overridable in tests.
var (
	keyringGet    = keyring.Get
	keyringSet    = keyring.Set
	keyringDelete = keyring.Delete
)

// StoreToken saves the model bearer token to the OS keyring.
func StoreToken(token string) error {
	return keyringSet(keyringService, keyringToken, token)
}

// GetToken retrieves the bearer token from the OS keyring.
// Returns empty string if not found or the keyring is unavailable.
func GetToken() string {
	val, err := keyringGet(keyringService, keyringToken)
	if err != nil {
		return ""
	}
	return val
}

// DeleteToken removes the bearer token from the OS keyring.
func DeleteToken() error {
	err := keyringDelete(keyringService, keyringToken)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}
