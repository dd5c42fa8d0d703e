package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Server carries the dependencies shared by all handlers.
type Server struct {
	DB     *gorm.DB
	Config *Config
}

func (s *Server) db(c *gin.Context) *gorm.DB {
	return s.DB.WithContext(c.Request.Context())
}

// -----------------------------
// Helper functions
// -----------------------------

func jsonError(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"error": msg})
}

// respondError maps service errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrNotMember):
		jsonError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		jsonError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrDuplicateMembership),
		errors.Is(err, ErrCreatorCannotLeave), errors.Is(err, ErrEmailTaken), errors.Is(err, ErrUsernameTaken):
		jsonError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidPurpose), errors.Is(err, ErrInvalidLikelihood):
		jsonError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		jsonError(c, http.StatusUnauthorized, err.Error())
	default:
		jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
	}
}

// getUserIDFromContext expects AuthMiddleware to set "user_id" (uint) in context.
func getUserIDFromContext(c *gin.Context) (uint, bool) {
	uid, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	v, ok := uid.(uint)
	return v, ok
}

func eventIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		jsonError(c, http.StatusBadRequest, "invalid event id")
		return 0, false
	}
	return uint(id), true
}

// parseTimeOfDay accepts HH:MM or HH:MM:SS.
func parseTimeOfDay(s string) (datatypes.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("15:04", s)
	if err != nil {
		t, err = time.Parse("15:04:05", s)
		if err != nil {
			return 0, err
		}
	}
	return datatypes.NewTime(t.Hour(), t.Minute(), t.Second(), 0), nil
}

// -----------------------------
// Events
// -----------------------------

type EventRequest struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description" binding:"required"`
	Location      string `json:"location" binding:"required"`
	Date          string `json:"date" binding:"required"` // YYYY-MM-DD or RFC3339
	Time          string `json:"time" binding:"required"` // HH:MM
	Purpose       string `json:"purpose" binding:"required"`
	ItemsBringing string `json:"items_bringing"`
}

func (r EventRequest) input() (EventInput, error) {
	date, ok := parseDate(r.Date)
	if !ok {
		return EventInput{}, errors.New("invalid date format (use RFC3339 or YYYY-MM-DD)")
	}
	tod, err := parseTimeOfDay(r.Time)
	if err != nil {
		return EventInput{}, errors.New("invalid time format (use HH:MM)")
	}
	return EventInput{
		Title:       r.Title,
		Description: r.Description,
		Date:        date,
		Time:        tod,
		Location:    r.Location,
	}, nil
}

func (s *Server) CreateEvent(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body EventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	in, err := body.input()
	if err != nil {
		jsonError(c, http.StatusBadRequest, err.Error())
		return
	}

	ev, err := CreateEventWithCreator(s.db(c), userID, in, Purpose(body.Purpose), body.ItemsBringing)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func (s *Server) GetEvent(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	viewerID, _ := getUserIDFromContext(c)

	detail, err := GetEventDetail(s.db(c), eventID, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) UpdateEvent(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	var body EventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	in, err := body.input()
	if err != nil {
		jsonError(c, http.StatusBadRequest, err.Error())
		return
	}

	ev, err := UpdateEvent(s.db(c), eventID, userID, in, Purpose(body.Purpose), body.ItemsBringing)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (s *Server) DeleteEvent(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	if err := DeleteEvent(s.db(c), eventID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}

// -----------------------------
// Attendance
// -----------------------------

type JoinRequest struct {
	Likelihood    string `json:"attendance_likelihood" binding:"required"`
	Purpose       string `json:"purpose" binding:"required"`
	ItemsBringing string `json:"items_bringing"`
}

func (s *Server) JoinEvent(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	var body JoinRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	att, err := JoinEvent(s.db(c), eventID, userID, Likelihood(body.Likelihood), Purpose(body.Purpose), body.ItemsBringing)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, att)
}

func (s *Server) LeaveEvent(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	if err := LeaveEvent(s.db(c), eventID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "you have left the event and your items have been removed"})
}

type MembershipRequest struct {
	Purpose       string `json:"purpose" binding:"required"`
	ItemsBringing string `json:"items_bringing"`
}

func (s *Server) UpdateMembership(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	var body MembershipRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	att, err := UpdateCreatorMembership(s.db(c), eventID, userID, Purpose(body.Purpose), body.ItemsBringing)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, att)
}

// -----------------------------
// Search and listings
// -----------------------------
//
// GET /events?event_name=&location=&items_search=&date_from=&date_to=&page=
//
// Malformed dates are ignored rather than rejected.
func (s *Server) SearchHandler(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		// page that is not a number falls back to the first page
		req = SearchRequest{
			Name:     c.Query("event_name"),
			Location: c.Query("location"),
			Items:    c.Query("items_search"),
			DateFrom: c.Query("date_from"),
			DateTo:   c.Query("date_to"),
		}
	}

	page, err := SearchEvents(s.db(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) UserEventsHandler(c *gin.Context) {
	pageNum, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	page, err := ListUserEvents(s.db(c), c.Param("username"), pageNum)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) CalendarHandler(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	now := nowFunc()
	year, yerr := strconv.Atoi(c.Query("year"))
	month, merr := strconv.Atoi(c.Query("month"))
	if yerr != nil || merr != nil || year == 0 || month == 0 {
		year, month = now.Year(), int(now.Month())
	}

	events, err := ListAttendingEvents(s.db(c), userID, year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "events": events})
}

// -----------------------------
// Account
// -----------------------------

type AccountRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
}

func (s *Server) UpdateAccount(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body AccountRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	user, err := UpdateProfile(s.db(c), userID, body.Email, body.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
