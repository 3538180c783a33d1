package repositories

import "gametracker/internal/models"

// UserRepository defines the interface for user credential access. Accounts
// are looked up by email only.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
}
