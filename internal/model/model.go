package model

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusPending, StatusApproved, StatusCompleted, StatusCancelled}

// ParseStatus accepts the literal names case-insensitively.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", false
	}
	return st, true
}

// Valid reports whether s is one of the exact literal names.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Appointment struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Address            string    `json:"address"`
	Reason             string    `json:"reason"`
	Message            string    `json:"message,omitempty"`
	Status             Status    `json:"status"`
	CancellationReason *string   `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

type Admin struct {
	ID           string
	Username     string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}

type Session struct {
	ID        string
	AdminID   string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Stats holds the per-status appointment counts.
type Stats struct {
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

func (s *Stats) Add(st Status, n int) {
	switch st {
	case StatusPending:
		s.Pending += n
	case StatusApproved:
		s.Approved += n
	case StatusCompleted:
		s.Completed += n
	case StatusCancelled:
		s.Cancelled += n
	}
}

func (s Stats) Total() int {
	return s.Pending + s.Approved + s.Completed + s.Cancelled
}
