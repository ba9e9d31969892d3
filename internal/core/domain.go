package core

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without a time component.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses the YYYY-MM-DD wire format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// User is an account row. PasswordHash never leaves the service layer.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Category groups a user's expenses.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	UserID      uuid.UUID `json:"user_id"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Expense is a dated monetary record owned by a user.
type Expense struct {
	ID            uuid.UUID `json:"id"`
	Amount        Money     `json:"amount"`
	Description   string    `json:"description"`
	UserID        uuid.UUID `json:"user_id"`
	CategoryID    uuid.UUID `json:"category_id"`
	Date          Date      `json:"date"`
	PaymentMethod *string   `json:"payment_method"`
	IsRecurring   bool      `json:"is_recurring"`
	Tags          []string  `json:"tags"`
}

// ExpenseInput is the mutable part of an expense as submitted by a
// client; Validate runs before any store call.
type ExpenseInput struct {
	Amount        Money
	Description   string
	CategoryID    uuid.UUID
	Date          Date
	PaymentMethod *string
	IsRecurring   bool
	Tags          []string
}

func (in ExpenseInput) Validate() error {
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if in.Description == "" {
		return ErrDescriptionRequired
	}
	if len(in.Description) > 255 {
		return ErrDescriptionTooLong
	}
	if in.CategoryID == uuid.Nil {
		return ErrCategoryIDRequired
	}
	if in.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// CategoryInput carries a new category name.
type CategoryInput struct {
	Name string
}

func (in CategoryInput) Validate() error {
	switch {
	case in.Name == "":
		return ErrNameRequired
	case len(in.Name) < 3:
		return ErrNameTooShort
	case len(in.Name) > 30:
		return ErrNameTooLong
	}
	return nil
}

// RegisterInput carries registration fields. Password strength is
// scored separately by the auth service; Validate only checks shape.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

func (in RegisterInput) Validate() error {
	if in.Name == "" {
		return ErrNameRequired
	}
	if len(in.Name) < 3 {
		return ErrNameTooShort
	}
	if len(in.Name) > 100 {
		return ErrNameTooLong
	}
	if !validEmail(in.Email) || len(in.Email) > 254 {
		return ErrInvalidEmail
	}
	// bcrypt truncates beyond 72 bytes
	if len(in.Password) > 72 {
		return ErrPasswordTooLong
	}
	return nil
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
}

func (in LoginInput) Validate() error {
	if !validEmail(in.Email) {
		return ErrInvalidEmail
	}
	if in.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

func validEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
