package database

import (
	"database/sql"
	"fmt"
)

var _ UserRepository = (*userRepository)(nil)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) UserRepository {
	return &userRepository{db: db}
}

// GetUser returns a user record, or nil if the user is unknown.
func (r *userRepository) GetUser(id string) (*User, error) {
	var user User
	err := r.db.QueryRow(`
		SELECT id, tier, created_at
		FROM users
		WHERE id = ?
	`, id).Scan(&user.ID, &user.Tier, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
