package model

import "time"

// User is a registered farmer account. Identifier is the login name: a phone
// number or email address, stored lower-cased.
type User struct {
	ID           int64
	Name         string
	Identifier   string
	PasswordHash string
	Village      string
	State        string
	Language     Language
	CreatedAt    time.Time
}
