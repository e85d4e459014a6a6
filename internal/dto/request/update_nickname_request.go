package request

// UpdateNicknameRequest mutates the caller's display name.
type UpdateNicknameRequest struct {
	Nickname string `json:"nickname" binding:"required"`
}
