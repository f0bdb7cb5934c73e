package models

import "time"

// AdministrativeEvent is a dated milestone note owned by exactly one
// convention and removed with it.
type AdministrativeEvent struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	ConventionID     uint   `gorm:"not null;index" json:"conventionId"`
	EventDate        string `gorm:"size:20;not null" json:"eventDate"`
	EventDescription string `gorm:"type:text;not null" json:"eventDescription"`
	Notes            string `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
