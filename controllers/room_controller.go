package controllers

import (
	"net/http"

	"hotel-sync/services"
	"hotel-sync/utils"

	"github.com/gin-gonic/gin"
)

// RoomController exposes read-only inventory views.
type RoomController struct {
	Rooms     *services.RoomService
	RoomTypes *services.RoomTypeService
}

func NewRoomController(rooms *services.RoomService, roomTypes *services.RoomTypeService) *RoomController {
	return &RoomController{Rooms: rooms, RoomTypes: roomTypes}
}

// GET /api/rooms
func (rc *RoomController) GetRooms(c *gin.Context) {
	rooms, err := rc.Rooms.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

// GET /api/rooms/:id
func (rc *RoomController) GetRoom(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	room, err := rc.Rooms.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

// GET /api/room-types
func (rc *RoomController) GetRoomTypes(c *gin.Context) {
	types, err := rc.RoomTypes.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, types)
}

// GET /api/room-types/:id
func (rc *RoomController) GetRoomType(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	rt, err := rc.RoomTypes.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rt)
}
