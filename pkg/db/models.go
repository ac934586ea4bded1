package db

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// Status is the board column a project sits in.
type Status uint8

// These constants refer to the statuses supported by the board, in column order.
const (
	StatusTodo Status = iota
	StatusInProgress
	StatusDone
)

// NumStatuses is the number of statuses; arrays indexed by Status use it as their length.
const NumStatuses = int(StatusDone) + 1

var statusNames = [NumStatuses]string{
	StatusTodo:       "todo",
	StatusInProgress: "in_progress",
	StatusDone:       "done",
}

// ErrInvalidStatus is returned when parsing an unknown status or payment status.
var ErrInvalidStatus = errors.New("invalid status")

// Statuses returns every status in column order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

// ParseStatus maps the stored name of a status back to the Status.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}

	return 0, fmt.Errorf("%w: '%s'", ErrInvalidStatus, name)
}

func (s Status) String() string {
	if int(s) < NumStatuses {
		return statusNames[s]
	}

	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return int(s) < NumStatuses
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, uint8(s))
	}

	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// Scan implements sql.Scanner.
func (s *Status) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidStatus, src)
	}
}

// Value implements driver.Valuer.
func (s Status) Value() (driver.Value, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}

	return string(text), nil
}

// PaymentStatus tracks how far along the payment for a project is.
type PaymentStatus uint8

// These constants refer to the payment statuses a project can have. Pending is the default.
const (
	PaymentPending PaymentStatus = iota
	PaymentWillPay
	PaymentPaid
	PaymentNotPaid
	PaymentCancelled
)

// NumPaymentStatuses is the number of payment statuses.
const NumPaymentStatuses = int(PaymentCancelled) + 1

var paymentNames = [NumPaymentStatuses]string{
	PaymentPending:   "pending",
	PaymentWillPay:   "will_pay",
	PaymentPaid:      "paid",
	PaymentNotPaid:   "not_paid",
	PaymentCancelled: "cancelled",
}

// PaymentStatuses returns every payment status.
func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{PaymentPending, PaymentWillPay, PaymentPaid, PaymentNotPaid, PaymentCancelled}
}

// ParsePaymentStatus maps the stored name of a payment status back to the PaymentStatus.
func ParsePaymentStatus(name string) (PaymentStatus, error) {
	for i, n := range paymentNames {
		if n == name {
			return PaymentStatus(i), nil
		}
	}

	return 0, fmt.Errorf("%w: payment status '%s'", ErrInvalidStatus, name)
}

func (p PaymentStatus) String() string {
	if p.Valid() {
		return paymentNames[p]
	}

	return fmt.Sprintf("PaymentStatus(%d)", uint8(p))
}

// Valid reports whether p is one of the known payment statuses.
func (p PaymentStatus) Valid() bool {
	return int(p) < NumPaymentStatuses
}

// MarshalText implements encoding.TextMarshaler.
func (p PaymentStatus) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: payment status %d", ErrInvalidStatus, uint8(p))
	}

	return []byte(paymentNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PaymentStatus) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentStatus(string(text))
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}

// Scan implements sql.Scanner.
func (p *PaymentStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return p.UnmarshalText([]byte(v))
	case []byte:
		return p.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidStatus, src)
	}
}

// Value implements driver.Valuer.
func (p PaymentStatus) Value() (driver.Value, error) {
	text, err := p.MarshalText()
	if err != nil {
		return nil, err
	}

	return string(text), nil
}

// Project is a unit of client work shown as a card on the board.
type Project struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	ClientID      string        `json:"client_id,omitempty"`
	StartDate     *time.Time    `json:"start_date,omitempty"`
	EndDate       *time.Time    `json:"end_date,omitempty"`
	Value         float64       `json:"value"`
	PaidValue     float64       `json:"paid_value"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Status        Status        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Remaining is the part of the project value that has not been paid yet.
func (p Project) Remaining() float64 {
	return p.Value - p.PaidValue
}

// Client is someone projects are done for.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectPatch is a partial project update. Only non-nil fields are written.
// An empty ClientID clears the client.
type ProjectPatch struct {
	Name          *string        `json:"name,omitempty"`
	Description   *string        `json:"description,omitempty"`
	ClientID      *string        `json:"client_id,omitempty"`
	StartDate     *time.Time     `json:"start_date,omitempty"`
	EndDate       *time.Time     `json:"end_date,omitempty"`
	Value         *float64       `json:"value,omitempty"`
	PaidValue     *float64       `json:"paid_value,omitempty"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty"`
	Status        *Status        `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ProjectPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.ClientID == nil && p.StartDate == nil &&
		p.EndDate == nil && p.Value == nil && p.PaidValue == nil && p.PaymentStatus == nil && p.Status == nil
}

// TimeEntry is a stretch of time worked on a project. EndTime is nil while the timer runs.
type TimeEntry struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// Running reports whether the timer for this entry has not been stopped.
func (e TimeEntry) Running() bool {
	return e.EndTime == nil
}

// Duration is the time worked, counting up to now while the timer runs.
func (e TimeEntry) Duration(now time.Time) time.Duration {
	if e.EndTime != nil {
		return e.EndTime.Sub(e.StartTime)
	}

	return now.Sub(e.StartTime)
}

// RunningEntry returns the first running entry in entries.
func RunningEntry(entries []TimeEntry) (TimeEntry, bool) {
	for _, entry := range entries {
		if entry.Running() {
			return entry, true
		}
	}

	return TimeEntry{}, false
}
