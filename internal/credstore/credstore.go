package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// The API token lives in the OS credential store, never in the plain
// config file next to the host.
const (
	service  = "Mnemy"
	tokenKey = "x_api_token"
)

var ErrTokenNotSet = errors.New("api token not found, run 'mnemy auth login' first")

func SaveToken(token string) error {
	if err := keyring.Set(service, tokenKey, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	return nil
}

func Token() (string, error) {
	token, err := keyring.Get(service, tokenKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrTokenNotSet
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	return token, nil
}

func ClearToken() error {
	err := keyring.Delete(service, tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	return nil
}
