package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agita-app/agita-server/internal/middleware"
	"github.com/agita-app/agita-server/internal/models"
	"github.com/agita-app/agita-server/internal/services"
)

// TrackPartyView records an anonymous or signed-in view of a party card.
// The session id comes from a cookie so repeat views inside the dedupe
// window collapse into one.
func TrackPartyView(e *services.EngagementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		partyID := c.Param("id")
		var req struct {
			OwnerID string `json:"owner_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload"))
			return
		}

		sessionID, err := c.Cookie("session_id")
		if err != nil || sessionID == "" {
			sessionID = uuid.New().String()
			c.SetCookie("session_id", sessionID, 3600*24, "/", "", false, true)
		}

		view := &models.PartyView{
			PartyID:   partyID,
			OwnerID:   req.OwnerID,
			SessionID: sessionID,
			IPAddress: c.ClientIP(),
			ViewedAt:  time.Now(),
		}
		if session, ok := middleware.CurrentSession(c); ok {
			view.UserID = &session.UserID
		}

		if err := e.TrackView(c.Request.Context(), view); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func MarkInterested(e *services.EngagementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := requireSession(c)
		if !ok {
			return
		}

		partyID := c.Param("id")
		if err := e.MarkInterested(c.Request.Context(), userID, partyID); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "marked as interested"})
	}
}

func RemoveInterested(e *services.EngagementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := requireSession(c)
		if !ok {
			return
		}

		partyID := c.Param("id")
		if err := e.RemoveInterested(c.Request.Context(), userID, partyID); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "interest removed"})
	}
}
