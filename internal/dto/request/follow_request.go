package request

// FollowRequest follows or unfollows a target user.
type FollowRequest struct {
	To string `json:"to" validate:"required"`
}
