package qms

import "time"

type Product struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	SKU         string    `json:"sku" db:"sku"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// SupplierStatus is the qualification state of a supplier.
type SupplierStatus string

const (
	SupplierPending      SupplierStatus = "PENDING"
	SupplierApproved     SupplierStatus = "APPROVED"
	SupplierDisqualified SupplierStatus = "DISQUALIFIED"
)

type Supplier struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	ContactEmail string         `json:"contact_email" db:"contact_email"`
	Status       SupplierStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Notification is an in-app message for one user.
type Notification struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	DocumentID *string   `json:"document_id" db:"document_id"`
	Message    string    `json:"message" db:"message"`
	Read       bool      `json:"read" db:"read"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
