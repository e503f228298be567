package credential

import (
	"fmt"
	"strings"

	"github.com/99designs/keyring"

	"github.com/dkazakov/scan-reporting/internal/model"
)

const serviceName = "scanreport"

// refPrefix marks a config value that names a keyring entry instead of
// carrying the secret inline.
const refPrefix = "keyring:"

// Conventional keys consulted when a credential is omitted from the
// configuration entirely.
const (
	keyJiraPassword = "jira-password"
	keyJiraToken    = "jira-token"
	keyPortalToken  = "engagement-token"
	keySMTPPassword = "email-password"
)

// lookup fetches a credential by key. Tests substitute it.
var lookup = Get

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/scanreport/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("scanreport-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Resolve expands a "keyring:<key>" reference to the stored secret.
// Plain values pass through unchanged.
func Resolve(value string) (string, error) {
	if !strings.HasPrefix(value, refPrefix) {
		return value, nil
	}
	key := strings.TrimPrefix(value, refPrefix)
	if key == "" {
		return "", fmt.Errorf("empty keyring reference")
	}
	return lookup(key)
}

// ResolveReporters expands every keyring reference in the reporter
// configuration in place. A reference that cannot be resolved is a fatal
// configuration error. Credentials omitted from the configuration are
// filled from their conventional keyring keys when present; dynamic
// tracker targets carry their own credentials and are not filled.
func ResolveReporters(cfg *model.ReportersConfig) error {
	if cfg == nil {
		return nil
	}

	if cfg.Jira != nil {
		if err := resolveTarget(&cfg.Jira.JiraTarget); err != nil {
			return fmt.Errorf("jira: %w", err)
		}
		fillConventional(&cfg.Jira.JiraTarget.Password, keyJiraPassword)
		fillConventional(&cfg.Jira.JiraTarget.Token, keyJiraToken)
		for name, target := range cfg.Jira.DynamicJira {
			if err := resolveTarget(&target); err != nil {
				return fmt.Errorf("jira dynamic target %q: %w", name, err)
			}
			cfg.Jira.DynamicJira[name] = target
		}
	}

	if cfg.Engagement != nil {
		token, err := Resolve(cfg.Engagement.Token)
		if err != nil {
			return fmt.Errorf("engagement token: %w", err)
		}
		cfg.Engagement.Token = token
		fillConventional(&cfg.Engagement.Token, keyPortalToken)
	}

	if cfg.Email != nil {
		password, err := Resolve(cfg.Email.Password)
		if err != nil {
			return fmt.Errorf("email password: %w", err)
		}
		cfg.Email.Password = password
		fillConventional(&cfg.Email.Password, keySMTPPassword)
	}

	return nil
}

// fillConventional fills an empty credential field from its conventional
// keyring key. Absence is not an error; reporter validation reports
// genuinely missing credentials.
func fillConventional(field *string, key string) {
	if *field != "" {
		return
	}
	if value, err := lookup(key); err == nil && value != "" {
		*field = value
	}
}

func resolveTarget(target *model.JiraTarget) error {
	password, err := Resolve(target.Password)
	if err != nil {
		return fmt.Errorf("password: %w", err)
	}
	target.Password = password

	token, err := Resolve(target.Token)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}
	target.Token = token
	return nil
}
