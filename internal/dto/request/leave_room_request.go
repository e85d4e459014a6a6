package request

// LeaveRoomRequest leaves a room. The legacy "room" key is accepted as an
// alias for "room_id".
type LeaveRoomRequest struct {
	RoomID string `json:"room_id" validate:"required_without=Room"`
	Room   string `json:"room" validate:"required_without=RoomID"`
}

// Target resolves the room id, preferring the canonical key.
func (r *LeaveRoomRequest) Target() string {
	if r.RoomID != "" {
		return r.RoomID
	}
	return r.Room
}
