package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type borrowerForm struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	LoanAmount    int64  `json:"loan_amount"`
	Employment    string `json:"employment"`
	Income        int64  `json:"income"`
	ExistingLoan  int64  `json:"existing_loan"`
	CreditScore   int    `json:"credit_score"`
	SourceOfFunds string `json:"source_of_funds"`
	RiskSignal    string `json:"risk_signal,omitempty"`
}

func validBorrower() borrowerForm {
	return borrowerForm{
		Name:          "Jane Roe",
		Email:         "jane.roe@example.com",
		Phone:         "(555) 123-4567",
		LoanAmount:    300000,
		Employment:    "Nurse",
		Income:        90000,
		ExistingLoan:  0,
		CreditScore:   700,
		SourceOfFunds: "Savings",
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *Error
	require.True(t, errors.As(err, &verr), "expected *validation.Error, got %v", err)
	return verr.Fields
}

func TestLogin(t *testing.T) {
	assert.NoError(t, Login.Validate(map[string]any{"email": "broker@gmail.com", "password": "B123456"}))

	fields := fieldsOf(t, Login.Validate(map[string]any{"email": "nope", "password": "123"}))
	assert.Equal(t, "Please enter a valid email address", fields["email"])
	assert.Equal(t, "Password must be at least 6 characters", fields["password"])

	fields = fieldsOf(t, Login.Validate(map[string]any{"email": "broker@gmail.com"}))
	assert.Equal(t, map[string]string{"password": "Password must be at least 6 characters"}, fields)
}

func TestBorrower_Valid(t *testing.T) {
	assert.NoError(t, Borrower.Validate(validBorrower()))
}

func TestBorrower_FieldMessages(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*borrowerForm)
		field string
		msg   string
	}{
		{"short name", func(b *borrowerForm) { b.Name = "J" }, "name", "Name must be at least 2 characters"},
		{"bad email", func(b *borrowerForm) { b.Email = "jane" }, "email", "Please enter a valid email address"},
		{"short phone", func(b *borrowerForm) { b.Phone = "555" }, "phone", "Phone number must be at least 10 digits"},
		{"small loan", func(b *borrowerForm) { b.LoanAmount = 999 }, "loan_amount", "Loan amount must be at least $1,000"},
		{"no income", func(b *borrowerForm) { b.Income = 0 }, "income", "Annual income is required"},
		{"negative existing", func(b *borrowerForm) { b.ExistingLoan = -1 }, "existing_loan", "Existing loan amount cannot be negative"},
		{"score low", func(b *borrowerForm) { b.CreditScore = 299 }, "credit_score", "Credit score must be between 300-850"},
		{"score high", func(b *borrowerForm) { b.CreditScore = 851 }, "credit_score", "Credit score must be between 300-850"},
		{"no funds", func(b *borrowerForm) { b.SourceOfFunds = "" }, "source_of_funds", "Source of funds is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := validBorrower()
			tc.edit(&b)
			fields := fieldsOf(t, Borrower.Validate(b))
			assert.Equal(t, map[string]string{tc.field: tc.msg}, fields)
		})
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Fields: map[string]string{"b": "second", "a": "first"}}
	assert.Equal(t, "validation: a: first; b: second", err.Error())
}
