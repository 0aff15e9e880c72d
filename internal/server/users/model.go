package users

import "time"

// AccessLevel is the role a user registered with. It gates which operations
// a session may invoke.
type AccessLevel string

const (
	AccessCustomer AccessLevel = "customer"
	AccessWorker   AccessLevel = "worker"
)

// Valid reports whether the level is one of the two known roles.
func (l AccessLevel) Valid() bool {
	return l == AccessCustomer || l == AccessWorker
}

type User struct {
	ID          string
	Name        string
	Salt        []byte
	Verifier    []byte
	AccessLevel AccessLevel
	CreatedAt   time.Time
}
