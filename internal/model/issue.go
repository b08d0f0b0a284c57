package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IssueStatus represents the lifecycle status of an issue.
type IssueStatus string

const (
	StatusPending    IssueStatus = "pending"
	StatusInProgress IssueStatus = "in_progress"
	StatusWorking    IssueStatus = "working"
	StatusResolved   IssueStatus = "resolved"
	StatusClosed     IssueStatus = "closed"
	StatusRejected   IssueStatus = "rejected"
)

// forwardTransitions is the single source of truth for the staff-driven
// path. Exactly one forward step is legal from any non-terminal state.
// pending -> rejected is the only other edge and is admin-driven.
var forwardTransitions = map[IssueStatus]IssueStatus{
	StatusPending:    StatusInProgress,
	StatusInProgress: StatusWorking,
	StatusWorking:    StatusResolved,
	StatusResolved:   StatusClosed,
}

// Next returns the single legal forward status, if any.
func (s IssueStatus) Next() (IssueStatus, bool) {
	next, ok := forwardTransitions[s]
	return next, ok
}

// Terminal reports whether no further transition is permitted.
func (s IssueStatus) Terminal() bool {
	return s == StatusClosed || s == StatusRejected
}

// CanTransitionTo reports whether s -> to is a legal edge.
func (s IssueStatus) CanTransitionTo(to IssueStatus) bool {
	if s == StatusPending && to == StatusRejected {
		return true
	}
	next, ok := forwardTransitions[s]
	return ok && next == to
}

// NextStatuses returns the legal next states, used both for validation and
// for advertising choices to clients.
func (s IssueStatus) NextStatuses() []IssueStatus {
	var out []IssueStatus
	if next, ok := forwardTransitions[s]; ok {
		out = append(out, next)
	}
	if s == StatusPending {
		out = append(out, StatusRejected)
	}
	return out
}

// Valid reports whether s is a known status.
func (s IssueStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusWorking, StatusResolved, StatusClosed, StatusRejected:
		return true
	}
	return false
}

// IssuePriority is the handling priority of an issue.
type IssuePriority string

const (
	PriorityNormal IssuePriority = "normal"
	PriorityHigh   IssuePriority = "high"
)

// Issue represents a reported infrastructure problem.
type Issue struct {
	ID          uuid.UUID     `json:"id" gorm:"type:char(36);primaryKey"`
	Title       string        `json:"title" gorm:"size:255;not null;index"`
	Description string        `json:"description" gorm:"type:text;not null"`
	Category    string        `json:"category" gorm:"size:255;not null;index"` // denormalized category name
	Image       string        `json:"image" gorm:"size:512"`
	Location    string        `json:"location" gorm:"size:255;index"`
	// ReporterEmail is set once at creation and never changes.
	ReporterEmail      string        `json:"reporterEmail" gorm:"size:255;not null;index"`
	ReporterName       string        `json:"reporterName" gorm:"size:255"`
	AssignedStaffEmail string        `json:"assignedStaffEmail" gorm:"size:255;index"` // empty means unassigned
	AssignedStaffName  string        `json:"assignedStaffName" gorm:"size:255"`
	Status             IssueStatus   `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Priority           IssuePriority `json:"priority" gorm:"type:varchar(10);not null;default:'normal';index"`
	// IsBoosted, once true, cannot become false.
	IsBoosted   bool           `json:"isBoosted" gorm:"default:false;index"`
	UpvoteCount int            `json:"upvoteCount" gorm:"not null;default:0"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// Assigned reports whether a staff member is assigned.
func (i *Issue) Assigned() bool {
	return i.AssignedStaffEmail != ""
}

// BeforeCreate sets UUID before creating the record.
func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// IssueUpvote records one identity's vote on an issue. The composite unique
// index makes repeat votes a no-op.
type IssueUpvote struct {
	ID         uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	IssueID    uuid.UUID `json:"issue_id" gorm:"type:char(36);not null;uniqueIndex:ux_issue_voter,priority:1"`
	VoterEmail string    `json:"voter_email" gorm:"size:255;not null;uniqueIndex:ux_issue_voter,priority:2"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (v *IssueUpvote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
