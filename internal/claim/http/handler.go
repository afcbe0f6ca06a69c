package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/auth"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/claim"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/notify"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/pkg/response"
)

type Handler struct {
	service  claim.Service
	notifier *notify.Notifier
}

func NewHandler(service claim.Service, notifier *notify.Notifier) *Handler {
	return &Handler{
		service:  service,
		notifier: notifier,
	}
}

func (h *Handler) ListSlots(c *gin.Context) {
	roomID := c.Param("id")
	if _, err := uuid.Parse(roomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	slots, err := h.service.ListSlots(c.Request.Context(), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]SlotResponse, len(slots))
	for i, s := range slots {
		items[i] = NewSlotResponse(s)
	}
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "slots": items})
}

func (h *Handler) GetAvailability(c *gin.Context) {
	roomID := c.Param("id")
	if _, err := uuid.Parse(roomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	slots, err := h.service.GetAvailability(c.Request.Context(), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAvailabilityResponse(roomID, slots))
}

// Watch streams claim change events for a room as server-sent events.
// Fresh subscribers see no history; clients fetch current availability
// first and keep a periodic refetch as a backstop for missed events.
func (h *Handler) Watch(c *gin.Context) {
	roomID := c.Param("id")
	if _, err := uuid.Parse(roomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	sub, err := h.notifier.Subscribe(c.Request.Context(), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer sub.Close()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event.Claim)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) CreateHold(c *gin.Context) {
	var body CreateHoldBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	req := claim.CreateHoldRequest{
		RoomID:         body.RoomID,
		OwnerID:        userID,
		StartTime:      body.StartTime.UTC(),
		EndTime:        body.EndTime.UTC(),
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	}

	held, err := h.service.CreateHold(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewClaimResponse(held))
}

func (h *Handler) Confirm(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body ConfirmBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	confirmed, err := h.service.Confirm(c.Request.Context(), claim.ConfirmRequest{
		ClaimID:   id,
		OwnerID:   userID,
		Agenda:    body.Agenda,
		PartySize: body.PartySize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewClaimResponse(confirmed))
}

func (h *Handler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) List(c *gin.Context) {
	var req ListClaimsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// Users only ever see their own claims here; room-wide state comes
	// from the availability projection instead.
	filter := claim.Filter{
		OwnerID:  userID,
		RoomID:   req.RoomID,
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	claims, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ClaimResponse, len(claims))
	for i, cl := range claims {
		items[i] = NewClaimResponse(cl)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, filter.Page, filter.PageSize, total))
}
