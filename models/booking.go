package models

import (
	"time"

	"gorm.io/gorm"
)

// BookingStatus is the lifecycle state of a booking. Status is only ever
// written through the lifecycle service, which pairs every write with a
// precondition on the previous status.
type BookingStatus string

const (
	// StatusPendingAssignment means no technician has been chosen yet;
	// an admin picks one later.
	StatusPendingAssignment BookingStatus = "pending-assignment"
	// StatusPending means a technician is assigned and has not responded.
	StatusPending BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusDeclined  BookingStatus = "declined"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// IsTerminal reports whether no further transitions leave this status.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusDeclined, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Booking represents a service request linking a requester to a service
// category and, eventually, a technician.
type Booking struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Service        string        `gorm:"not null" json:"service"`
	Location       string        `gorm:"not null" json:"location"`
	Details        string        `gorm:"type:text" json:"details"`
	Phone          string        `gorm:"not null" json:"phone"`
	Status         BookingStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	PhotoKey       *string       `json:"photo_key"`            // nullable, S3 key for an attached job photo
	RequesterID    uint          `gorm:"not null;index" json:"requester_id"`
	RequesterEmail string        `gorm:"not null" json:"requester_email"`
	Requester      Account       `gorm:"foreignKey:RequesterID" json:"requester"`
	TechnicianID   *uint         `gorm:"index" json:"technician_id"` // nullable until assigned
	TechnicianEmail *string      `json:"technician_email"`
	Technician     *Account      `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}
