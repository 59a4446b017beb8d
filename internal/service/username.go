package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/lumina-platform/auth-service/internal/repository"
)

const maxUsernameLength = 20

// normalizeEmail canonicalizes an address before any lookup or insert,
// keeping the unique email column case-insensitive in practice.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeUsername canonicalizes a username the same way, so the stored
// value and every login identifier compare case-insensitively.
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// usernameSeed derives a candidate username from an email address: the
// local part lowercased, filtered to [a-z0-9._-] and truncated. An empty
// result falls back to "user".
func usernameSeed(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	local = strings.ToLower(local)

	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}

	seed := b.String()
	if seed == "" {
		seed = "user"
	}
	if len(seed) > maxUsernameLength {
		seed = seed[:maxUsernameLength]
	}
	return seed
}

// generateUniqueUsername picks the first free username derived from the
// email, appending -1, -2, ... on collisions. Suffixed candidates are
// re-truncated so the total stays within the column limit.
func generateUniqueUsername(ctx context.Context, accounts repository.AccountRepository, email string) (string, error) {
	seed := usernameSeed(email)

	candidate := seed
	for n := 1; ; n++ {
		exists, err := accounts.UsernameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username availability: %w", err)
		}
		if !exists {
			return candidate, nil
		}

		suffix := "-" + strconv.Itoa(n)
		base := seed
		if len(base)+len(suffix) > maxUsernameLength {
			base = base[:maxUsernameLength-len(suffix)]
		}
		candidate = base + suffix
	}
}

// isDuplicateKey reports whether an insert failed on a uniqueness
// constraint, so the caller can retry with a fresh candidate.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
