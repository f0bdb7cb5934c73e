package models

import "time"

// FinancialContribution is a per-partner, per-year funding line owned by
// exactly one convention and removed with it.
type FinancialContribution struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	ConventionID uint   `gorm:"not null;index" json:"conventionId"`
	PartnerName  string `gorm:"size:200;not null" json:"partnerName"`
	Year         string `gorm:"size:10;not null" json:"year"`

	AmountExpected *float64 `gorm:"type:decimal(14,2)" json:"amountExpected"`
	AmountPaid     *float64 `gorm:"type:decimal(14,2)" json:"amountPaid"`
	PaymentDate    string   `gorm:"size:20" json:"paymentDate"`
	IsPaid         string   `gorm:"size:10;not null;default:false" json:"isPaid"`
	Notes          string   `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f *FinancialContribution) Paid() bool {
	return f.IsPaid == "true"
}
