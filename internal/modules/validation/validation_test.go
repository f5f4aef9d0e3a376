package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInvestment_EmptyAndZero(t *testing.T) {
	// No input means no investment, not an error
	amount, err := ParseInvestment("", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, amount)

	amount, err = ParseInvestment("0", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, amount)

	amount, err = ParseInvestment("  ", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, amount)
}

func TestParseInvestment_ValidAmounts(t *testing.T) {
	amount, err := ParseInvestment("250", "")
	require.NoError(t, err)
	assert.Equal(t, 250.0, amount)

	amount, err = ParseInvestment("10.12", "")
	require.NoError(t, err)
	assert.Equal(t, 10.12, amount)

	amount, err = ParseInvestment("0.01", "")
	require.NoError(t, err)
	assert.Equal(t, 0.01, amount)
}

func TestParseInvestment_TooManyDecimals(t *testing.T) {
	_, err := ParseInvestment("10.125", "")
	require.Error(t, err)

	var invErr *InvestmentError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "decimal", invErr.Kind)
	assert.Equal(t, MsgInvestmentDecimal, err.Error())
}

func TestParseInvestment_Negative(t *testing.T) {
	_, err := ParseInvestment("-1", "")
	require.Error(t, err)

	var invErr *InvestmentError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "negative", invErr.Kind)
	assert.Equal(t, MsgInvestmentNegative, err.Error())
}

func TestParseInvestment_Unparsable(t *testing.T) {
	_, err := ParseInvestment("abc", "")
	require.Error(t, err)

	var invErr *InvestmentError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "invalid", invErr.Kind)
	assert.Equal(t, MsgInvestmentInvalid, err.Error())
}

func TestParseInvestment_StockNamePrefix(t *testing.T) {
	_, err := ParseInvestment("-5", "TechCorp Inc.")
	require.Error(t, err)
	assert.Equal(t, "TechCorp Inc.: "+MsgInvestmentNegative, err.Error())
}

func TestValidateTotal_ExceedsAvailable(t *testing.T) {
	err := ValidateTotal([]float64{600, 500}, 1000)
	require.Error(t, err)

	var totalErr *TotalError
	require.ErrorAs(t, err, &totalErr)
	assert.Equal(t, 1100.0, totalErr.Total)
	assert.Equal(t, 1000.0, totalErr.Available)
	assert.Equal(t, "Total investment ($1100.00) exceeds available amount ($1000.00)", err.Error())
}

func TestValidateTotal_ExactBalanceAllowed(t *testing.T) {
	// Spending the full balance is a strict greater-than check, so
	// equality passes
	err := ValidateTotal([]float64{500, 500}, 1000)
	assert.NoError(t, err)
}

func TestValidateTotal_UnderBalance(t *testing.T) {
	err := ValidateTotal([]float64{100, 50}, 1000)
	assert.NoError(t, err)

	err = ValidateTotal(nil, 1000)
	assert.NoError(t, err)
}

func TestValidateDemographics_Valid(t *testing.T) {
	d, err := ValidateDemographics("34", "female", "masters", "intermediate")
	require.NoError(t, err)
	assert.Equal(t, 34, d.Age)
	assert.Equal(t, "female", d.Gender)
	assert.Equal(t, "masters", d.Education)
	assert.Equal(t, "intermediate", d.Experience)
}

func TestValidateDemographics_Age(t *testing.T) {
	tests := []struct {
		name    string
		rawAge  string
		wantMsg string
	}{
		{"missing", "", MsgAgeRequired},
		{"unparsable", "abc", MsgAgeInvalid},
		{"too young", "17", MsgAgeTooYoung},
		{"too old", "121", MsgAgeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateDemographics(tt.rawAge, "male", "bachelors", "none")
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}

	// Boundary ages are accepted
	_, err := ValidateDemographics("18", "male", "bachelors", "none")
	assert.NoError(t, err)
	_, err = ValidateDemographics("120", "male", "bachelors", "none")
	assert.NoError(t, err)
}

func TestValidateDemographics_MissingSelections(t *testing.T) {
	_, err := ValidateDemographics("30", "", "bachelors", "none")
	require.Error(t, err)
	assert.Equal(t, MsgGenderRequired, err.Error())

	_, err = ValidateDemographics("30", "male", "", "none")
	require.Error(t, err)
	assert.Equal(t, MsgEducationRequired, err.Error())

	_, err = ValidateDemographics("30", "male", "bachelors", "")
	require.Error(t, err)
	assert.Equal(t, MsgExperienceRequired, err.Error())
}
