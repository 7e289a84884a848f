package domain

import "time"

// UserStatus is the three-valued account state derived from raw records.
// Unknown is distinct from Inactive: a record that never carried a status
// field must not render as a disabled account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusUnknown  UserStatus = "unknown"
)

// User is the canonical user shape. Email is always stored lowercased and
// trimmed; it is the natural key used for duplicate detection.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	Occupation  string     `json:"occupation"`
	BankName    string     `json:"bankName"`
	BankAccount string     `json:"bankAccount"`
	Status      UserStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLogin   time.Time  `json:"lastLogin"`
}

// DuplicateGroup collects users sharing one normalized email. Groups are
// recomputed on demand and never persisted.
type DuplicateGroup struct {
	NormalizedEmail string `json:"normalizedEmail"`
	Members         []User `json:"members"`
}
