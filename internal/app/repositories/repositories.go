package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	VerificationRepository *VerificationRepository
	SeedRepository         *SeedRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		VerificationRepository: NewVerificationRepository(db),
		SeedRepository:         NewSeedRepository(db),
	}
}
