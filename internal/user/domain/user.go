package domain

import "time"

// ID is opaque to everything above the storage adapters: a UUID string for
// the relational backend, an ObjectID hex string for the document backend.
type ID string

type User struct {
	ID           ID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateData struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
}

// View is the only shape of a user that leaves the service layer.
type View struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
