package request

// JoinRoomRequest joins by opaque id, or by display name for the legacy
// find-or-create path. Exactly one of the two must be present.
type JoinRoomRequest struct {
	RoomID string `json:"room_id" validate:"required_without=Room"`
	Room   string `json:"room" validate:"required_without=RoomID"`
}
