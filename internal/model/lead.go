package model

import "time"

type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadConverted LeadStatus = "converted"
	LeadRejected  LeadStatus = "rejected"
)

// Lead is a prospect captured from the public signup form.
// swagger:model Lead
type Lead struct {
	BaseModel
	PublicID    string     `gorm:"size:36;uniqueIndex;not null" json:"publicId"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	Email       string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone       string     `gorm:"size:30" json:"phone"`
	Message     string     `gorm:"type:text" json:"message"`
	Status      LeadStatus `gorm:"type:enum('new','contacted','converted','rejected');default:'new'" json:"status"`
	ConvertedAt *time.Time `json:"convertedAt,omitempty"`
}

func (Lead) TableName() string {
	return "leads"
}
