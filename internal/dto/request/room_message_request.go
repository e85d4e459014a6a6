package request

// RoomMessageRequest broadcasts a chat message to a room.
type RoomMessageRequest struct {
	RoomID string `json:"room_id" validate:"required_without=Room"`
	Room   string `json:"room" validate:"required_without=RoomID"`
	Text   string `json:"text"`
}

// Target resolves the room id, preferring the canonical key.
func (r *RoomMessageRequest) Target() string {
	if r.RoomID != "" {
		return r.RoomID
	}
	return r.Room
}
