// File: services/directory/directory.go
package directory

import (
	"context"
	"fmt"

	userRepo "clinicore/database/repository/user"
	"clinicore/models"
)

// UserDirectory resolves user identities and contact details for reminder
// content and delivery.
type UserDirectory struct {
	users userRepo.UserRepository
}

// NewUserDirectory wires the directory.
func NewUserDirectory(users userRepo.UserRepository) *UserDirectory {
	return &UserDirectory{users: users}
}

// Get loads one user record.
func (d *UserDirectory) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := d.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not resolve user %s: %w", id, err)
	}
	return user, nil
}

// Register stores a minimal identity record, used when the upstream
// identity system syncs users into this subsystem.
func (d *UserDirectory) Register(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("user id is required")
	}
	if !models.ValidRole(user.Role) {
		return fmt.Errorf("unknown role %q", user.Role)
	}
	return d.users.Create(ctx, user)
}

// UpdateDeviceToken stores the FCM token the push channel needs.
func (d *UserDirectory) UpdateDeviceToken(ctx context.Context, userID, token string) error {
	return d.users.UpdateFCMToken(ctx, userID, token)
}
