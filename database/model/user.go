// Package model defines the persisted data model for secret-keeper.
package model

// User is one account. Accounts are created either by local
// registration (Username + PasswordHash set) or by the first successful
// Google federation (GoogleId set); every account has at least one of
// the two credential fields.
//
// Username and GoogleId are pointers so that "absent" maps to NULL and
// the unique indexes only apply to rows that carry a value.
type User struct {
	Id           int     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     *string `json:"username" gorm:"uniqueIndex"`
	PasswordHash *string `json:"-" gorm:"column:password_hash"`
	GoogleId     *string `json:"-" gorm:"column:google_id;uniqueIndex"`
	Secret       *string `json:"secret"`
}

// HasSecret reports whether the user has submitted a secret.
func (u User) HasSecret() bool {
	return u.Secret != nil && *u.Secret != ""
}

// DisplayName returns the username for local accounts and a generic
// label for federated accounts without one.
func (u User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return "anonymous"
}
