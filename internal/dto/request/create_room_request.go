package request

// CreateRoomRequest creates a named room.
type CreateRoomRequest struct {
	Name string `json:"name" validate:"required"`
}
