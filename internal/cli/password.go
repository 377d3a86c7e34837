package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/moneykeeper/internal/validation"
)

// getPassword returns the password of the stored data set
func (c *Cli) getPassword() (string, error) {
	if c.password != "" {
		return c.password, nil
	}
	password, _, err := c.readPassword()
	if err != nil {
		return "", fmt.Errorf("failed to get password: %w", err)
	}
	c.password = password
	return password, nil
}

// readPassword retrieves the password from various sources with priority:
// 1. Environment variable MONEYKEEPER_PASSWORD
// 2. File specified in Passwords.FromFile
// 3. Command-line parameter Passwords.FromArgs
// 4. Interactive prompt (fallback)
// interactive reports whether the prompt was used.
func (c *Cli) readPassword() (password string, interactive bool, err error) {
	// Priority 1: Environment variable
	if envPassword := os.Getenv(PasswordEnv); envPassword != "" {
		return envPassword, false, nil
	}

	// Priority 2: File
	if c.passwords.FromFile != "" {
		content, err := os.ReadFile(c.passwords.FromFile)
		if err != nil {
			return "", false, fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", false, fmt.Errorf("password file is empty")
		}
		return password, false, nil
	}

	// Priority 3: CLI parameter
	if c.passwords.FromArgs != "" {
		return c.passwords.FromArgs, false, nil
	}

	// Priority 4: Interactive prompt (fallback)
	password, err = c.io.ReadPassword("Password: ")
	if err != nil {
		return "", false, fmt.Errorf("failed to read password from stdin: %w", err)
	}
	if password == "" {
		return "", false, fmt.Errorf("password cannot be empty")
	}
	return password, true, nil
}

// newPassword prompts for a new password twice and checks the policy
func (c *Cli) newPassword(prompt string) (string, error) {
	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Repeat password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if confirm != password {
		return "", ErrPasswordMismatch
	}
	return password, nil
}
