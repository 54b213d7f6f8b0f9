package keychain

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "goalbot"
	// BotTokenAccount is the keychain entry holding the Telegram bot token.
	BotTokenAccount = "telegram_bot_token"
)

// ErrNotFound is returned when no secret is stored under the account.
var ErrNotFound = errors.New("secret not found in keychain")

// Get retrieves a secret from the system keychain.
func Get(account string) (string, error) {
	v, err := keyring.Get(serviceName, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keychain get %s: %w", account, err)
	}
	return v, nil
}

// Set stores a secret in the system keychain.
func Set(account, value string) error {
	if value == "" {
		return fmt.Errorf("keychain set %s: empty value", account)
	}
	if err := keyring.Set(serviceName, account, value); err != nil {
		return fmt.Errorf("keychain set %s: %w", account, err)
	}
	return nil
}

// BotToken returns configured when set, otherwise the token stored in
// the keychain.
func BotToken(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	token, err := Get(BotTokenAccount)
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("telegram bot token not configured: set telegram.bot_token or run `goalbot token set`")
	}
	return token, err
}
