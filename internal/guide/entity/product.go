package entity

import "time"

// Product 产线在制产品
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:64;uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"size:128;not null"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status" gorm:"size:16;not null;default:active"` // active/inactive
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Stages []Stage `json:"stages,omitempty" gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string {
	return "products"
}
