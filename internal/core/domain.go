package core

import (
	"errors"
	"strings"
	"time"
)

// ReportingCurrency is the currency every total is expressed in.
const ReportingCurrency = "KRW"

const (
	Monthly BillingCycle = "monthly"
	Yearly  BillingCycle = "yearly"
)

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

const (
	CategoryEntertainment Category = "entertainment"
	CategoryMusic         Category = "music"
	CategoryAI            Category = "ai"
	CategorySocial        Category = "social"
	CategoryProductivity  Category = "productivity"
	CategoryCloud         Category = "cloud"
	CategoryEducation     Category = "education"
	CategoryFinance       Category = "finance"
	CategoryNews          Category = "news"
	CategoryGaming        Category = "gaming"
	CategoryDevelopment   Category = "development"
	CategorySecurity      Category = "security"
	CategoryOther         Category = "other"
)

const (
	DefaultColor = "#1e88e5"
	DefaultIcon  = "fas fa-credit-card"
)

type (
	BillingCycle string
	Status       string
	Category     string

	// Subscription is the projection of a stored subscription record that the
	// calendar and analytics code reads.
	Subscription struct {
		ID              int64        `json:"id"`
		Name            string       `json:"name"`
		Description     string       `json:"description,omitempty"`
		Amount          float64      `json:"amount"`
		Currency        string       `json:"currency"`
		KRWAmount       *float64     `json:"krwAmount,omitempty"`
		BillingCycle    BillingCycle `json:"billingCycle"`
		Status          Status       `json:"status"`
		Category        Category     `json:"category"`
		NextPaymentDate DateField    `json:"nextPaymentDate,omitempty"`
		YearlyDiscount  *float64     `json:"yearlyDiscount,omitempty"`
		Color           string       `json:"color,omitempty"`
		Icon            string       `json:"icon,omitempty"`
		DisplayOrder    int          `json:"displayOrder"`
		CreatedAt       time.Time    `json:"createdAt"`
		UpdatedAt       time.Time    `json:"updatedAt"`
	}

	// Payment is a single scheduled charge derived from an active subscription.
	// DateString is always a canonical YYYY-MM-DD key.
	Payment struct {
		ID         int64   `json:"id"`
		Name       string  `json:"name"`
		Amount     float64 `json:"amount"`
		KRWAmount  float64 `json:"krwAmount"`
		DateString string  `json:"dateString"`
		Color      string  `json:"color"`
		Icon       string  `json:"icon"`
	}
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyName           = errors.New("empty name")
	ErrNameTooLong         = errors.New("name too long (max 100 characters)")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidBillingCycle = errors.New("invalid billing cycle")
	ErrInvalidDiscount     = errors.New("invalid yearly discount")
)

var categoryLabels = map[Category]string{
	CategoryEntertainment: "Entertainment",
	CategoryMusic:         "Music",
	CategoryAI:            "AI",
	CategorySocial:        "Social",
	CategoryProductivity:  "Productivity",
	CategoryCloud:         "Cloud",
	CategoryEducation:     "Education",
	CategoryFinance:       "Finance",
	CategoryNews:          "News",
	CategoryGaming:        "Gaming",
	CategoryDevelopment:   "Development",
	CategorySecurity:      "Security",
	CategoryOther:         "Other",
}

// Categories returns every known category in display order.
func Categories() []Category {
	return []Category{
		CategoryEntertainment, CategoryMusic, CategoryAI, CategorySocial,
		CategoryProductivity, CategoryCloud, CategoryEducation, CategoryFinance,
		CategoryNews, CategoryGaming, CategoryDevelopment, CategorySecurity,
		CategoryOther,
	}
}

func (c Category) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human readable category name.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[CategoryOther]
}

func (b BillingCycle) IsValid() bool {
	return b == Monthly || b == Yearly
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the subscription participates in totals and calendars.
func (s Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// NormalizedKRW returns the amount in the reporting currency: the raw amount
// for KRW, the precomputed KRW amount when present, otherwise the raw amount
// unconverted.
func (s Subscription) NormalizedKRW() float64 {
	if strings.EqualFold(s.Currency, ReportingCurrency) {
		return s.Amount
	}
	if s.KRWAmount != nil && *s.KRWAmount != 0 {
		return *s.KRWAmount
	}
	return s.Amount
}

// ApplyDefaults fills in the fields a new subscription may omit.
func (s *Subscription) ApplyDefaults() {
	if s.Status == "" {
		s.Status = StatusActive
	}
	if s.Currency == "" {
		s.Currency = ReportingCurrency
	}
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	if s.BillingCycle == "" {
		s.BillingCycle = Monthly
	}
	if s.Category == "" {
		s.Category = CategoryOther
	}
	if s.Color == "" {
		s.Color = DefaultColor
	}
	if s.Icon == "" {
		s.Icon = DefaultIcon
	}
}

func (s Subscription) Validate() error {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > 100 {
		return ErrNameTooLong
	}
	if s.Amount <= 0 {
		return ErrInvalidAmount
	}
	if len(s.Currency) != 3 {
		return ErrInvalidCurrency
	}
	if !s.Category.IsValid() {
		return ErrInvalidCategory
	}
	if !s.Status.IsValid() {
		return ErrInvalidStatus
	}
	if !s.BillingCycle.IsValid() {
		return ErrInvalidBillingCycle
	}
	if s.YearlyDiscount != nil && (*s.YearlyDiscount < 0 || *s.YearlyDiscount >= 1) {
		return ErrInvalidDiscount
	}
	if s.NextPaymentDate != "" {
		if _, ok := NormalizeDate(string(s.NextPaymentDate)); !ok {
			return ErrInvalidDate
		}
	}
	return nil
}

// IsValidationError reports whether err is one of the input validation errors.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidMonth, ErrInvalidDate, ErrInvalidAmount, ErrEmptyName,
		ErrNameTooLong, ErrInvalidCurrency, ErrInvalidCategory, ErrInvalidStatus,
		ErrInvalidBillingCycle, ErrInvalidDiscount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Float64 returns a pointer to v, handy for the optional amount fields.
func Float64(v float64) *float64 {
	return &v
}
