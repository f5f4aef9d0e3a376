// Package validation holds the pure input validators for participant
// submissions: investment amounts, totals against the available balance,
// and the demographics form.
//
// Validation failures are user-facing; the error text is shown inline to
// the participant and must name the problem precisely.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Demographics validation bounds.
const (
	MinAge = 18
	MaxAge = 120
)

// MaxDecimalPlaces is the precision investment amounts must round-trip at.
const MaxDecimalPlaces = 2

// User-facing validation messages. These are stable strings the front end
// displays verbatim.
const (
	MsgAgeRequired        = "Please enter a valid age (18 or older)"
	MsgAgeTooYoung        = "You must be at least 18 years old to participate"
	MsgAgeInvalid         = "Please enter a valid age between 18 and 120"
	MsgGenderRequired     = "Please select a gender"
	MsgEducationRequired  = "Please select an education level"
	MsgExperienceRequired = "Please select your investment experience"
	MsgInvestmentNegative = "Investment amount cannot be negative"
	MsgInvestmentInvalid  = "Please enter a valid investment amount"
	MsgInvestmentDecimal  = "Investment amount can have at most 2 decimal places"
)

// InvestmentError is a user-facing rejection of a single investment amount.
// Kind distinguishes negative, unparsable, and decimal-precision failures.
type InvestmentError struct {
	Kind      string // "negative", "invalid", "decimal"
	StockName string // optional, prefixes the message
	Message   string
}

func (e *InvestmentError) Error() string {
	if e.StockName != "" {
		return fmt.Sprintf("%s: %s", e.StockName, e.Message)
	}
	return e.Message
}

// TotalError is a user-facing rejection of a task's summed investment.
type TotalError struct {
	Total     float64
	Available float64
}

func (e *TotalError) Error() string {
	return fmt.Sprintf("Total investment ($%.2f) exceeds available amount ($%.2f)", e.Total, e.Available)
}

// DemographicsError is a user-facing rejection of the demographics form.
type DemographicsError struct {
	Field   string
	Message string
}

func (e *DemographicsError) Error() string {
	return e.Message
}

// ParseInvestment validates a single raw investment amount.
//
// Empty input and explicit zero are valid and mean "no investment".
// The amount must parse as a non-negative number and round-trip exactly
// at two decimal places. stockName, when non-empty, prefixes the error
// message so the participant knows which input was rejected.
func ParseInvestment(raw string, stockName string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return 0, nil
	}

	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &InvestmentError{Kind: "invalid", StockName: stockName, Message: MsgInvestmentInvalid}
	}

	if amount < 0 {
		return 0, &InvestmentError{Kind: "negative", StockName: stockName, Message: MsgInvestmentNegative}
	}

	// Strict round-trip check at 2 decimal places: 10.125 is rejected,
	// 10.12 is accepted.
	if roundTo(amount, MaxDecimalPlaces) != amount {
		return 0, &InvestmentError{Kind: "decimal", StockName: stockName, Message: MsgInvestmentDecimal}
	}

	return amount, nil
}

// ValidateTotal checks that the summed investments do not exceed the
// available balance. Spending exactly the full balance is permitted;
// only a strictly greater total is rejected.
func ValidateTotal(amounts []float64, available float64) error {
	var total float64
	for _, a := range amounts {
		total += a
	}

	if total > available {
		return &TotalError{Total: total, Available: available}
	}

	return nil
}

// Demographics is the validated demographics form.
type Demographics struct {
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	Education  string `json:"education"`
	Experience string `json:"experience"`
}

// ValidateDemographics validates the raw demographics form and returns
// the typed record. Fields are checked in display order so the first
// unmet requirement is the one reported.
func ValidateDemographics(rawAge, gender, education, experience string) (Demographics, error) {
	rawAge = strings.TrimSpace(rawAge)
	if rawAge == "" {
		return Demographics{}, &DemographicsError{Field: "age", Message: MsgAgeRequired}
	}

	age, err := strconv.Atoi(rawAge)
	if err != nil {
		return Demographics{}, &DemographicsError{Field: "age", Message: MsgAgeInvalid}
	}
	if age < MinAge {
		return Demographics{}, &DemographicsError{Field: "age", Message: MsgAgeTooYoung}
	}
	if age > MaxAge {
		return Demographics{}, &DemographicsError{Field: "age", Message: MsgAgeInvalid}
	}

	if gender == "" {
		return Demographics{}, &DemographicsError{Field: "gender", Message: MsgGenderRequired}
	}
	if education == "" {
		return Demographics{}, &DemographicsError{Field: "education", Message: MsgEducationRequired}
	}
	if experience == "" {
		return Demographics{}, &DemographicsError{Field: "experience", Message: MsgExperienceRequired}
	}

	return Demographics{
		Age:        age,
		Gender:     gender,
		Education:  education,
		Experience: experience,
	}, nil
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
