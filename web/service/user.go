package service

import (
	"secret-keeper/database"
	"secret-keeper/database/model"
	"secret-keeper/logger"
	"secret-keeper/util/crypto"
)

// UserService implements account registration, credential checks and
// secret management on top of the user store.
type UserService struct{}

// Register creates a local account with a salted bcrypt digest of the
// password. Returns ErrDuplicateUsername when the name is taken.
func (s *UserService) Register(username string, password string) (*model.User, error) {
	db := database.GetDB()

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     &username,
		PasswordHash: &hash,
	}
	if err := db.Create(user).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return user, nil
}

// CheckUser verifies a username/password pair. It returns ErrNotFound
// when no such user exists and ErrInvalidCredentials when the digest
// does not match. It never mutates the stored record.
func (s *UserService) CheckUser(username string, password string) (*model.User, error) {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("username = ?", username).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	if user.PasswordHash == nil || !crypto.CheckPasswordHash(*user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUserById resolves a session reference back to the full record.
func (s *UserService) GetUserById(id int) (*model.User, error) {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("id = ?", id).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

// FindOrCreateByGoogleId returns the user bound to the external id,
// creating one with no local credentials on first federation. The
// unique index on google_id makes this idempotent under concurrent
// callbacks: the losing insert re-queries and returns the winner.
func (s *UserService) FindOrCreateByGoogleId(googleId string) (*model.User, error) {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("google_id = ?", googleId).
		First(user).
		Error
	if err == nil {
		return user, nil
	}
	if !database.IsNotFound(err) {
		return nil, err
	}

	user = &model.User{GoogleId: &googleId}
	if err := db.Create(user).Error; err != nil {
		if database.IsDuplicate(err) {
			logger.Debugf("concurrent federation for google id %s, reusing existing user", googleId)
			existing := &model.User{}
			if err := db.Model(model.User{}).
				Where("google_id = ?", googleId).
				First(existing).
				Error; err != nil {
				return nil, err
			}
			return existing, nil
		}
		return nil, err
	}
	return user, nil
}

// SetSecret overwrites the user's secret. Resubmission replaces the
// previous value; no history is kept.
func (s *UserService) SetSecret(userId int, secret string) error {
	db := database.GetDB()

	result := db.Model(model.User{}).
		Where("id = ?", userId).
		Update("secret", secret)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUsersWithSecrets lists every user that has submitted a secret.
func (s *UserService) GetUsersWithSecrets() ([]model.User, error) {
	db := database.GetDB()

	var users []model.User
	err := db.Model(model.User{}).
		Where("secret IS NOT NULL AND secret != ''").
		Find(&users).
		Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
