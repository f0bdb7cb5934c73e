package models

import "time"

// Session binds a browser to a user for a fixed 24-hour window. Data holds a
// JSON snapshot of the user's public fields so most requests do not need a
// users lookup just to render the principal.
type Session struct {
	SID    string    `gorm:"column:sid;primaryKey;size:64"`
	Data   string    `gorm:"type:text;not null"`
	Expire time.Time `gorm:"index;not null"`
}
