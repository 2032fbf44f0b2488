package entity

import (
	"time"
)

// User is the aggregate root for the user domain.
// Passwords are stored as bcrypt hashes in Password field.
type User struct {
	ID         string
	Email      string
	Password   string
	Name       string
	Company    string
	JobTitle   string
	Bio        string
	AvatarURL  string
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProfilePatch carries the profile fields a caller asked to change.
// A nil field is left untouched; a non-nil field is written as given, empty string included.
type ProfilePatch struct {
	Name      *string
	Company   *string
	JobTitle  *string
	Bio       *string
	AvatarURL *string
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Company == nil && p.JobTitle == nil && p.Bio == nil && p.AvatarURL == nil
}

// Apply writes the present fields onto u and returns the names of the fields that changed value.
func (p ProfilePatch) Apply(u *User) []string {
	var changed []string
	set := func(name string, dst *string, v *string) {
		if v == nil {
			return
		}
		if *dst != *v {
			changed = append(changed, name)
		}
		*dst = *v
	}
	set("name", &u.Name, p.Name)
	set("company", &u.Company, p.Company)
	set("jobTitle", &u.JobTitle, p.JobTitle)
	set("bio", &u.Bio, p.Bio)
	set("avatarUrl", &u.AvatarURL, p.AvatarURL)
	return changed
}
