package domain

// Identity is the authenticated actor bound to a credential.
// Credentials carry exactly these fields and nothing else.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Owns reports whether the identity is the owner with the given id.
func (i Identity) Owns(ownerID int64) bool {
	return i.UserID != 0 && i.UserID == ownerID
}
