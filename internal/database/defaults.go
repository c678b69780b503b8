package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jask/finmgr/internal/database/repository"
)

// SelfContactID is the fixed id of the contact representing the owner.
var SelfContactID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("contact:self"))

// SeedDefaults ensures a usable database: the owner's contact and, when no user
// exists yet, an admin with the given credentials. It is idempotent and safe to
// run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB, adminName, adminPassword string) error {
	contacts := repository.NewContactRepo(db)
	self, err := contacts.Get(ctx, SelfContactID)
	if err != nil {
		return fmt.Errorf("seed contacts: %w", err)
	}
	if self == nil {
		if err := contacts.Upsert(ctx, repository.Contact{ID: SelfContactID, Name: "Me", Type: "Self"}); err != nil {
			return fmt.Errorf("seed contacts: %w", err)
		}
	}

	users := repository.NewUserRepo(db)
	n, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if n > 0 || adminName == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	return users.Upsert(ctx, repository.User{
		ID:                uuid.New(),
		Username:          adminName,
		PasswordHash:      string(hash),
		IsAdmin:           true,
		PreferredLanguage: "en",
	})
}
