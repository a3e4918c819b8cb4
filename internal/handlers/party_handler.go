package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agita-app/agita-server/internal/imaging"
	"github.com/agita-app/agita-server/internal/middleware"
	"github.com/agita-app/agita-server/internal/models"
	"github.com/agita-app/agita-server/internal/services"
)

// requireSession pulls the authenticated session out of the context and
// parses its user id. A false return means a response was already written.
func requireSession(c *gin.Context) (uuid.UUID, string, bool) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
		return uuid.Nil, "", false
	}

	ownerID, err := uuid.Parse(session.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("invalid user ID in token"))
		return uuid.Nil, "", false
	}

	accessToken := c.GetString(middleware.AccessTokenKey)
	if accessToken == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("access token not found"))
		return uuid.Nil, "", false
	}

	return ownerID, accessToken, true
}

// CreateParty handles the register-a-party form: multipart fields plus up
// to four image files keyed by slot name. Images run through the intake
// pipeline before anything touches the network.
func CreateParty(r *services.RegistrationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID, accessToken, ok := requireSession(c)
		if !ok {
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid multipart form"))
			return
		}

		intake := imaging.NewIntake()
		defer intake.Reset()

		for _, slot := range models.Slots {
			files := form.File[string(slot)]
			if len(files) == 0 {
				continue
			}
			file, err := files[0].Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse("could not read uploaded file"))
				return
			}
			selectErr := intake.Select(slot, file)
			file.Close()
			if selectErr != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse("could not process the image, try a different file"))
				return
			}
		}

		draft := &services.Draft{
			Name:        c.PostForm("name"),
			Date:        c.PostForm("date"),
			Time:        c.PostForm("time"),
			Description: c.PostForm("description"),
			Location:    c.PostForm("location"),
			TicketURL:   c.PostForm("ticket_url"),
			Price:       c.PostForm("price"),
			Contact:     c.PostForm("contact"),
			Images:      intake,
		}

		var last services.SubmitState
		party, err := r.Submit(c.Request.Context(), ownerID, draft, accessToken, func(s services.SubmitState) {
			last = s
		})
		if err != nil {
			if errors.Is(err, services.ErrSubmissionInFlight) {
				c.JSON(http.StatusConflict, models.ErrorResponse(err.Error()))
				return
			}
			if last.Phase == services.PhaseError {
				c.JSON(http.StatusBadGateway, models.ErrorResponse(err.Error()))
				return
			}
			// Validation failure: the draft is preserved client-side.
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(party, "party registered successfully"))
	}
}

// ListMyParties returns the caller's parties after the expiry sweep, with
// optional search, status filter and sort applied server-side.
func ListMyParties(d *services.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID, accessToken, ok := requireSession(c)
		if !ok {
			return
		}

		parties, err := d.LoadParties(c.Request.Context(), ownerID, accessToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(err.Error()))
			return
		}

		parties = models.FilterParties(parties,
			c.Query("search"),
			models.FilterStatus(c.DefaultQuery("status", string(models.FilterAll))),
		)
		parties = models.SortParties(parties,
			models.SortKey(c.DefaultQuery("sort", string(models.SortByStartsAt))),
		)

		c.JSON(http.StatusOK, models.ListResponse(parties, len(parties)))
	}
}

// UpdateParty saves an edit to the four editable fields of one record.
func UpdateParty(d *services.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID, accessToken, ok := requireSession(c)
		if !ok {
			return
		}

		partyID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid party ID format"))
			return
		}

		var edit models.PartyEdit
		if err := c.ShouldBindJSON(&edit); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload"))
			return
		}

		updated, err := d.UpdateParty(c.Request.Context(), partyID, ownerID, &edit, accessToken)
		if err != nil {
			if errors.Is(err, models.ErrPartyNotFound) {
				c.JSON(http.StatusNotFound, models.ErrorResponse("party not found"))
				return
			}
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(updated, "party updated successfully"))
	}
}

// DeleteParty removes a party and its stored images.
func DeleteParty(d *services.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID, accessToken, ok := requireSession(c)
		if !ok {
			return
		}

		partyID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid party ID format"))
			return
		}

		if err := d.DeletePartyByID(c.Request.Context(), partyID, ownerID, accessToken); err != nil {
			if errors.Is(err, models.ErrPartyNotFound) {
				c.JSON(http.StatusNotFound, models.ErrorResponse("party not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "party deleted successfully"})
	}
}

// ListUpcoming serves the public landing page feed of approved parties.
func ListUpcoming(d *services.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		parties, err := d.ListUpcoming(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(parties, len(parties)))
	}
}
