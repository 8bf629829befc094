package model

import "fmt"

// User represents a passenger account loaded from the catalog.  Users
// are loaded once at startup and never modified while the server runs.
// Passwords are kept and compared in plain text; the protocol has no
// notion of hashed credentials.
//
// Fields:
//  ID       – numeric identifier supplied in LOGIN frames.
//  Name     – display name echoed back on a successful login.
//  Address  – postal address (informational only).
//  Password – plain text password compared by exact equality.
type User struct {
	ID       int    // users.id
	Name     string // users.name
	Address  string // users.address
	Password string // users.password
}

// String renders the user the way startup logging prints catalog rows.
func (u User) String() string {
	return fmt.Sprintf("%d %s %s", u.ID, u.Name, u.Address)
}
