package types

// User is an admin account allowed to trigger maintenance actions.
type User struct {
	Username string `json:"username"`
	Hash     []byte `json:"hash"`
	Role     string `json:"role"`
}
