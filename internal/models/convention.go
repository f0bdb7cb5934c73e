package models

import "time"

// Jurisdiction values allowed on a convention.
const (
	JurisdictionTransferred = "منقول"
	JurisdictionOwn         = "ذاتي"
	JurisdictionShared      = "مشترك"
)

// ValidJurisdiction accepts the three known values or empty (not set).
func ValidJurisdiction(v string) bool {
	switch v {
	case "", JurisdictionTransferred, JurisdictionOwn, JurisdictionShared:
		return true
	}
	return false
}

type Convention struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	ConventionNumber string `gorm:"size:50;uniqueIndex;not null" json:"conventionNumber"`
	Date             string `gorm:"size:20;not null" json:"date"`
	Year             string `gorm:"size:10;not null" json:"year"`
	SessionLabel     string `gorm:"column:session;size:100;not null" json:"session"`
	Domain           string `gorm:"size:200;not null" json:"domain"`
	Sector           string `gorm:"size:200;not null" json:"sector"`
	DecisionNumber   string `gorm:"size:50;not null" json:"decisionNumber"`
	Status           string `gorm:"size:50;not null" json:"status"`
	Description      string `gorm:"type:text" json:"description"`

	Amount       *float64 `gorm:"type:decimal(14,2)" json:"amount"`
	Contribution *float64 `gorm:"type:decimal(14,2)" json:"contribution"`
	Contractor   string   `gorm:"size:200;not null" json:"contractor"`

	// Multi-valued fields persisted as single text columns, see StringList.
	DelegatedProjectOwner StringList `gorm:"type:text" json:"delegatedProjectOwner"`
	Province              StringList `gorm:"type:text" json:"province"`
	Partners              StringList `gorm:"type:text" json:"partners"`
	Attachments           StringList `gorm:"type:text" json:"attachments"`

	ExecutionType string `gorm:"size:100" json:"executionType"`
	Validity      string `gorm:"size:100" json:"validity"`
	Jurisdiction  string `gorm:"size:50" json:"jurisdiction"`
	Programme     string `gorm:"size:200" json:"programme"`

	CreatedBy string    `gorm:"size:36" json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Contributions []FinancialContribution `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Events        []AdministrativeEvent   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
