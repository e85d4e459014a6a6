package request

// RegisterRequest creates a user account. Nickname defaults to the
// username when empty.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Nickname string `json:"nickname"`
}
