package models

import "time"

// Subscription statuses mirrored from the payment provider
const (
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
	SubscriptionPastDue  = "past_due"
)

// Plan names offered by the payment provider
const (
	PlanStarter = "Starter"
	PlanBasic   = "Basic"
	PlanPro     = "Pro"
)

// User is the local projection of an identity from the auth provider. The ID
// is the provider's subject.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:64"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email" gorm:"index"`
	ProfileImage string    `json:"profileImage"`
	CustomerID   string    `json:"customerId,omitempty" gorm:"index"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Subscription is written by the billing integration and only read here
type Subscription struct {
	Base
	UserID            string     `json:"userId" gorm:"uniqueIndex;size:64;not null"`
	Status            string     `json:"status" gorm:"not null"`
	PlanName          string     `json:"planName"`
	Interval          string     `json:"interval"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
	CurrentPeriodEnd  *time.Time `json:"currentPeriodEnd"`
}

// IsActive reports whether the subscription currently grants paid features
func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == SubscriptionActive
}
