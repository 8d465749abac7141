package domain

import "time"

// Account models a registered user.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Bio          string    `json:"bio,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary returns the public display fields of the account.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:       a.ID,
		Name:     a.Name,
		Username: a.Username,
		Avatar:   a.Avatar,
	}
}

// AccountSummary is the denormalised author view attached to posts, comments
// and follow lists. It is resolved at read time and never persisted.
type AccountSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// ProfileUpdate carries the owner-editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name   *string
	Bio    *string
	Avatar *string
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Bio == nil && u.Avatar == nil
}

// Profile is the public view of an account as seen by a given viewer.
type Profile struct {
	Account     AccountSummary `json:"account"`
	Bio         string         `json:"bio,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Followers   int64          `json:"followers"`
	Following   int64          `json:"following"`
	Posts       int64          `json:"posts"`
	IsFollowing bool           `json:"is_following"`
}
