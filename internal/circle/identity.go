package circle

import (
	"context"
	"fmt"
	"strings"

	"github.com/npezzotti/wakuwork/internal/database"
)

// EnsureUser maps an identity-provider principal onto a local user,
// creating it on first sight and refreshing the provider name afterwards.
func (s *Service) EnsureUser(ctx context.Context, externalId, name string) (database.User, error) {
	externalId = strings.TrimSpace(externalId)
	if externalId == "" {
		return database.User{}, fmt.Errorf("ensure user: empty external id")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = unknownName
	}

	user, err := s.db.UpsertUser(ctx, database.UpsertUserParams{
		ExternalId:  externalId,
		DisplayName: name,
		Now:         s.now(),
	})
	if err != nil {
		return database.User{}, fmt.Errorf("upsert user %q: %w", externalId, err)
	}

	return user, nil
}
