package respond

// LoginRespond carries the minted token pair.
type LoginRespond struct {
	Username     string `json:"username"`
	Nickname     string `json:"nickname"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RegisterRespond reports account creation status.
type RegisterRespond struct {
	Status string `json:"status"` // CREATED | ALREADY
}

// UserInfoRespond is the authenticated profile view.
type UserInfoRespond struct {
	Username  string `json:"username"`
	Nickname  string `json:"nickname"`
	CreatedAt string `json:"created_at"`
}
