package request

// HistoryRequest queries a time-ranged slice of a room's log. Before and
// after are RFC 3339 timestamps; bounds are exclusive.
type HistoryRequest struct {
	RoomID string `json:"room_id" validate:"required_without=Room"`
	Room   string `json:"room" validate:"required_without=RoomID"`
	Limit  int    `json:"limit" validate:"omitempty,min=1"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Target resolves the room id, preferring the canonical key.
func (r *HistoryRequest) Target() string {
	if r.RoomID != "" {
		return r.RoomID
	}
	return r.Room
}
