package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the calendar-day wire format used by every store and the API.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	// Date is a calendar day with no time-of-day component, always at UTC midnight.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string          `json:"id"`
		OwnerID     string          `json:"owner_id"`
		Type        TransactionType `json:"type"`
		Amount      int64           `json:"amount"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	Goal struct {
		ID           string     `json:"id"`
		OwnerID      string     `json:"owner_id"`
		Title        string     `json:"title"`
		TargetAmount int64      `json:"target_amount"`
		CreatedAt    time.Time  `json:"created_at"`
		AchievedAt   *time.Time `json:"achieved_at"` // nil until explicitly marked achieved
	}

	// Badge is an earned record. It is written once per (owner, badge id) and never changed.
	Badge struct {
		ID         string    `json:"id"`
		OwnerID    string    `json:"owner_id"`
		BadgeID    BadgeID   `json:"badge_id"`
		AchievedAt time.Time `json:"achieved_at"`
	}

	Profile struct {
		OwnerID     string `json:"owner_id"`
		Name        string `json:"name"`
		AvatarEmoji string `json:"avatar_emoji"`
	}
)

var (
	ErrInvalidRecord       = errors.New("invalid record")
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be positive", ErrInvalidRecord)
	ErrInvalidType         = fmt.Errorf("%w: unknown transaction type", ErrInvalidRecord)
	ErrInvalidDate         = fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRecord)
	ErrEmptyTitle          = fmt.Errorf("%w: empty title", ErrInvalidRecord)
	ErrDescriptionTooLong  = fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidRecord)
	ErrEmptyOwner          = fmt.Errorf("%w: empty owner", ErrInvalidRecord)
	ErrNotFound            = errors.New("record not found")
	ErrGoalAlreadyAchieved = errors.New("goal already achieved")
	ErrGoalNotReached      = errors.New("goal progress below 100%")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// MustParseDate is ParseDate for literals; it panics on malformed input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(fmt.Sprintf("core: bad date literal %q", s))
	}
	return d
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM prefix of the date.
func (d Date) MonthKey() string {
	return d.String()[:7]
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// DaysBetween returns the number of calendar days from d to other.
func (d Date) DaysBetween(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// ParseTransactionType accepts the two wire values case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	tt := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if err := tt.Validate(); err != nil {
		return "", err
	}
	return tt, nil
}

func (tx Transaction) Validate() error {
	if strings.TrimSpace(tx.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if err := tx.Type.Validate(); err != nil {
		return err
	}
	if tx.Amount <= 0 {
		return ErrInvalidAmount
	}
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(tx.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

// IsIncome reports whether the transaction is a chore.
func (tx Transaction) IsIncome() bool {
	return tx.Type == Income
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if g.TargetAmount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (g Goal) IsAchieved() bool {
	return g.AchievedAt != nil
}
