package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ltnetwork/ltnetwork-api/models"
)

// BookingEvent is a requested lifecycle change. Every event maps to
// exactly one target status; the table below is the only place
// transitions are defined.
type BookingEvent string

const (
	EventAssign   BookingEvent = "assign"
	EventAccept   BookingEvent = "accept"
	EventDecline  BookingEvent = "decline"
	EventComplete BookingEvent = "complete"
	EventCancel   BookingEvent = "cancel"
)

type transitionRule struct {
	to   models.BookingStatus
	from []models.BookingStatus
}

var transitionTable = map[BookingEvent]transitionRule{
	EventAssign:   {to: models.StatusPending, from: []models.BookingStatus{models.StatusPendingAssignment}},
	EventAccept:   {to: models.StatusAccepted, from: []models.BookingStatus{models.StatusPending}},
	EventDecline:  {to: models.StatusDeclined, from: []models.BookingStatus{models.StatusPending}},
	EventComplete: {to: models.StatusCompleted, from: []models.BookingStatus{models.StatusAccepted}},
	EventCancel:   {to: models.StatusCancelled, from: []models.BookingStatus{models.StatusPending, models.StatusPendingAssignment}},
}

// CreateBookingInput carries the fields of a new service request.
// TechnicianEmail optionally targets a specific technician.
type CreateBookingInput struct {
	Service         string
	Location        string
	Details         string
	Phone           string
	TechnicianEmail string
}

// CreateBooking inserts a new booking for the requester. A booking with
// a valid technician target starts in "pending"; one without a target
// starts in "pending-assignment". An invalid target is an error, the
// booking is never silently created untargeted.
func CreateBooking(db *gorm.DB, requester *models.Account, input CreateBookingInput) (*models.Booking, error) {
	booking := models.Booking{
		Service:        input.Service,
		Location:       input.Location,
		Details:        input.Details,
		Phone:          input.Phone,
		Status:         models.StatusPendingAssignment,
		RequesterID:    requester.ID,
		RequesterEmail: requester.Email,
	}

	if email := strings.TrimSpace(input.TechnicianEmail); email != "" {
		technician, err := findTechnicianByEmail(db, email)
		if err != nil {
			return nil, err
		}
		booking.Status = models.StatusPending
		booking.TechnicianID = &technician.ID
		booking.TechnicianEmail = &technician.Email
	}

	if err := db.Create(&booking).Error; err != nil {
		return nil, fmt.Errorf("%w: creating booking: %v", ErrUpstreamUnavailable, err)
	}
	return reloadBooking(db, booking.ID)
}

// TransitionBooking applies accept, decline, complete or cancel to the
// booking. The state check comes first, then the actor guard, then a
// single conditional write: the status update only lands if the stored
// status still matches what we read, so two concurrent actors cannot
// both win the same transition.
func TransitionBooking(db *gorm.DB, bookingID uint, actor *models.Account, event BookingEvent) (*models.Booking, error) {
	if event == EventAssign {
		return nil, fmt.Errorf("assign requires a technician target")
	}

	booking, rule, err := loadForTransition(db, bookingID, actor, event)
	if err != nil {
		return nil, err
	}

	switch event {
	case EventAccept, EventDecline, EventComplete:
		// Only the assigned technician may respond to or complete a job.
		if booking.TechnicianID == nil || *booking.TechnicianID != actor.ID {
			return nil, ErrUnauthorized
		}
	case EventCancel:
		if booking.RequesterID != actor.ID && !actor.IsAdmin() {
			return nil, ErrUnauthorized
		}
	}

	updates := map[string]interface{}{"status": rule.to}
	if err := applyStatusWrite(db, booking, updates); err != nil {
		return nil, err
	}
	return reloadBooking(db, booking.ID)
}

// AssignTechnician moves a pending-assignment booking to pending with
// the given technician attached. Admin only. The technician fields land
// in the same conditional write as the status, so a concurrent cancel
// cannot interleave with the assignment.
func AssignTechnician(db *gorm.DB, bookingID uint, actor *models.Account, technicianEmail string) (*models.Booking, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	technician, err := findTechnicianByEmail(db, technicianEmail)
	if err != nil {
		return nil, err
	}

	booking, _, err := loadForTransition(db, bookingID, actor, EventAssign)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":           models.StatusPending,
		"technician_id":    technician.ID,
		"technician_email": technician.Email,
	}
	if err := applyStatusWrite(db, booking, updates); err != nil {
		return nil, err
	}
	return reloadBooking(db, booking.ID)
}

// loadForTransition fetches the booking and validates the requested
// event against the transition table.
func loadForTransition(db *gorm.DB, bookingID uint, actor *models.Account, event BookingEvent) (*models.Booking, transitionRule, error) {
	rule, ok := transitionTable[event]
	if !ok {
		return nil, transitionRule{}, fmt.Errorf("unknown booking event %q", event)
	}

	var booking models.Booking
	if err := db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, transitionRule{}, ErrNotFound
		}
		return nil, transitionRule{}, fmt.Errorf("%w: loading booking: %v", ErrUpstreamUnavailable, err)
	}

	for _, from := range rule.from {
		if booking.Status == from {
			return &booking, rule, nil
		}
	}
	return nil, transitionRule{}, &InvalidTransitionError{
		From:  booking.Status,
		To:    rule.to,
		Actor: actor.Email,
	}
}

// applyStatusWrite performs the precondition-guarded update. Zero rows
// affected means the stored status moved under us; the caller lost the
// race and must refresh before any retry.
func applyStatusWrite(db *gorm.DB, booking *models.Booking, updates map[string]interface{}) error {
	result := db.Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, booking.Status).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("%w: updating booking status: %v", ErrUpstreamUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPreconditionFailed
	}
	return nil
}

func findTechnicianByEmail(db *gorm.DB, email string) (*models.Account, error) {
	var technician models.Account
	err := db.Where("email = ?", strings.TrimSpace(email)).First(&technician).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: loading technician: %v", ErrUpstreamUnavailable, err)
	}
	if !technician.IsTechnician() {
		return nil, ErrUnauthorized
	}
	return &technician, nil
}

func reloadBooking(db *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := db.Preload("Requester").Preload("Technician").First(&booking, id).Error
	if err != nil {
		return nil, fmt.Errorf("%w: loading booking: %v", ErrUpstreamUnavailable, err)
	}
	return &booking, nil
}
