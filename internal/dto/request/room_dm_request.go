package request

// RoomDMRequest sends a room-scoped direct message.
type RoomDMRequest struct {
	RoomID string `json:"room_id" validate:"required_without=Room"`
	Room   string `json:"room" validate:"required_without=RoomID"`
	To     string `json:"to" validate:"required"`
	Text   string `json:"text"`
}

// Target resolves the room id, preferring the canonical key.
func (r *RoomDMRequest) Target() string {
	if r.RoomID != "" {
		return r.RoomID
	}
	return r.Room
}
