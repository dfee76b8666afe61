package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/studyhall/server/internal/app"
	"github.com/studyhall/server/internal/core"
	"github.com/studyhall/server/internal/domain"
)

type RoomAPI struct {
	Users core.UserStore
	Rooms core.RoomStore
	Dir   core.RoomDirectory

	Presence  *app.PresenceService
	Lifecycle *app.Lifecycle
}

type roomResponse struct {
	ID          domain.RoomID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Code        string        `json:"code"`
	CreatedBy   domain.UserID `json:"createdBy"`
	CreatorName string        `json:"creatorName,omitempty"`
	Avatar      string        `json:"avatar,omitempty"`
	Joined      int           `json:"joined"`
	Private     bool          `json:"isPrivate"`
	StartedAt   time.Time     `json:"startedAt"`
	Duration    string        `json:"duration"`
}

func toRoomResponse(d core.RoomDetail, now time.Time) roomResponse {
	return roomResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Code:        d.Code,
		CreatedBy:   d.CreatedBy,
		CreatorName: d.CreatorName,
		Avatar:      d.CreatorAvatar,
		Joined:      d.Joined,
		Private:     d.Private,
		StartedAt:   d.CreatedAt,
		Duration:    domain.FormatDuration(d.CreatedAt, now),
	}
}

func (a *RoomAPI) ListPublic(c *gin.Context) {
	details, err := a.Dir.ListOpenRooms(c.Request.Context())
	if err != nil {
		storeFail(c, err, "failed to list rooms")
		return
	}
	now := time.Now()
	out := make([]roomResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toRoomResponse(d, now))
	}
	c.JSON(http.StatusOK, out)
}

func (a *RoomAPI) Create(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Private     bool   `json:"isPrivate"`
		Password    string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "room name must not be empty"})
		return
	}
	if req.Private && strings.TrimSpace(req.Password) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "private rooms require a password"})
		return
	}

	ctx := c.Request.Context()
	code, err := a.uniqueCode(c)
	if err != nil {
		storeFail(c, err, "failed to create room")
		return
	}

	room := domain.Room{
		ID:          domain.RoomID(uuid.NewString()),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Code:        code,
		CreatedBy:   currentUser(c),
		Private:     req.Private,
		CreatedAt:   time.Now(),
	}
	if req.Private {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			storeFail(c, err, "failed to create room")
			return
		}
		room.PasswordHash = string(hash)
	}

	if err := a.Dir.CreateRoom(ctx, room); err != nil {
		storeFail(c, err, "failed to create room")
		return
	}
	// The creator starts as a member; without this the empty-room
	// check would close a fresh room before anyone joins.
	if err := a.Users.SetActiveRoom(ctx, room.CreatedBy, room.ID); err != nil {
		storeFail(c, err, "failed to create room")
		return
	}
	a.Presence.NotifyRoomChanged(room.CreatedBy, room.ID)

	log.Info().Str("module", "http.rooms").Str("room", string(room.ID)).
		Str("created_by", string(room.CreatedBy)).Msg("room created")
	c.JSON(http.StatusCreated, gin.H{"id": room.ID, "code": room.Code})
}

func (a *RoomAPI) uniqueCode(c *gin.Context) (string, error) {
	for {
		code := domain.NewRoomCode()
		exists, err := a.Dir.CodeExists(c.Request.Context(), code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}

func (a *RoomAPI) Join(c *gin.Context) {
	room, err := a.Rooms.GetOpenRoom(c.Request.Context(), domain.RoomID(c.Param("roomId")))
	if err != nil {
		roomFail(c, err)
		return
	}
	a.joinRoom(c, room)
}

func (a *RoomAPI) JoinByCode(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing room code"})
		return
	}
	room, err := a.Dir.GetOpenRoomByCode(c.Request.Context(), strings.ToUpper(req.Code))
	if err != nil {
		roomFail(c, err)
		return
	}
	a.joinRoom(c, room)
}

func (a *RoomAPI) joinRoom(c *gin.Context, room domain.Room) {
	if room.Private {
		var req struct {
			Password string `json:"password"`
		}
		_ = c.ShouldBindJSON(&req)
		if bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusForbidden, gin.H{"message": "wrong room password"})
			return
		}
	}

	user := currentUser(c)
	if err := a.Users.SetActiveRoom(c.Request.Context(), user, room.ID); err != nil {
		storeFail(c, err, "failed to join room")
		return
	}
	// A live socket in another room learns about the change and
	// issues its own join_room; HTTP never moves sockets directly.
	a.Presence.NotifyRoomChanged(user, room.ID)

	c.JSON(http.StatusOK, gin.H{"id": room.ID, "name": room.Name, "code": room.Code})
}

func (a *RoomAPI) Leave(c *gin.Context) {
	ctx := c.Request.Context()
	user := currentUser(c)
	snap, err := a.Users.GetSnapshot(ctx, user)
	if err != nil {
		userFail(c, err)
		return
	}
	if snap.ActiveRoomID == "" {
		c.JSON(http.StatusOK, gin.H{"message": "not in any room"})
		return
	}
	if err := a.Users.ClearActiveRoom(ctx, user); err != nil {
		storeFail(c, err, "failed to leave room")
		return
	}
	a.Lifecycle.ScheduleCheck(snap.ActiveRoomID, a.Lifecycle.LeaveGrace)
	c.JSON(http.StatusOK, gin.H{"message": "left room"})
}

func (a *RoomAPI) Close(c *gin.Context) {
	ctx := c.Request.Context()
	user := currentUser(c)
	snap, err := a.Users.GetSnapshot(ctx, user)
	if err != nil {
		userFail(c, err)
		return
	}
	err = a.Presence.CloseRoomAs(ctx, user, snap.Name, domain.RoomID(c.Param("roomId")))
	switch {
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "room not found or already closed"})
	case errors.Is(err, core.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"message": "only the creator can close this room"})
	case err != nil:
		storeFail(c, err, "failed to close room")
	default:
		c.JSON(http.StatusOK, gin.H{"message": "room closed"})
	}
}

func (a *RoomAPI) Current(c *gin.Context) {
	ctx := c.Request.Context()
	snap, err := a.Users.GetSnapshot(ctx, currentUser(c))
	if err != nil {
		userFail(c, err)
		return
	}
	if snap.ActiveRoomID == "" {
		c.JSON(http.StatusOK, gin.H{"room": nil})
		return
	}
	detail, err := a.Dir.GetOpenRoomDetail(ctx, snap.ActiveRoomID)
	if errors.Is(err, core.ErrNotFound) {
		// The room closed while we were away; heal the pointer.
		if err := a.Users.ClearActiveRoom(ctx, snap.ID); err != nil {
			log.Error().Err(err).Str("module", "http.rooms").
				Str("user", string(snap.ID)).Msg("clearing stale active room")
		}
		c.JSON(http.StatusOK, gin.H{"room": nil})
		return
	}
	if err != nil {
		storeFail(c, err, "failed to fetch current room")
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": toRoomResponse(detail, time.Now())})
}

func (a *RoomAPI) Details(c *gin.Context) {
	detail, err := a.Dir.GetOpenRoomDetail(c.Request.Context(), domain.RoomID(c.Param("roomId")))
	if err != nil {
		roomFail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomResponse(detail, time.Now()))
}

func (a *RoomAPI) Members(c *gin.Context) {
	members, err := a.Rooms.ListMembers(c.Request.Context(), domain.RoomID(c.Param("roomId")))
	if err != nil {
		storeFail(c, err, "failed to list members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "memberCount": len(members)})
}

func userFail(c *gin.Context, err error) {
	if errors.Is(err, core.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	storeFail(c, err, "store error")
}

func roomFail(c *gin.Context, err error) {
	if errors.Is(err, core.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "room not found or already closed"})
		return
	}
	storeFail(c, err, "store error")
}

func storeFail(c *gin.Context, err error, msg string) {
	log.Error().Err(err).Str("module", "http.rooms").Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"message": msg})
}
