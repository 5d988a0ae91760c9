package validation

const loginSchema = `{
  "type": "object",
  "properties": {
    "email":    {"type": "string", "format": "email"},
    "password": {"type": "string", "minLength": 6}
  },
  "required": ["email", "password"]
}`

const borrowerSchema = `{
  "type": "object",
  "properties": {
    "name":            {"type": "string", "minLength": 2},
    "email":           {"type": "string", "format": "email"},
    "phone":           {"type": "string", "minLength": 10},
    "loan_amount":     {"type": "number", "minimum": 1000},
    "employment":      {"type": "string", "minLength": 2},
    "income":          {"type": "number", "minimum": 1},
    "existing_loan":   {"type": "number", "minimum": 0},
    "credit_score":    {"type": "number", "minimum": 300, "maximum": 850},
    "source_of_funds": {"type": "string", "minLength": 2},
    "risk_signal":     {"type": "string"}
  },
  "required": ["name", "email", "phone", "loan_amount", "employment", "income",
               "existing_loan", "credit_score", "source_of_funds"]
}`

var (
	// Login validates {email, password}.
	Login = mustForm(loginSchema, map[string]string{
		"email":    "Please enter a valid email address",
		"password": "Password must be at least 6 characters",
	})

	// Borrower validates the add-borrower form.
	Borrower = mustForm(borrowerSchema, map[string]string{
		"name":            "Name must be at least 2 characters",
		"email":           "Please enter a valid email address",
		"phone":           "Phone number must be at least 10 digits",
		"loan_amount":     "Loan amount must be at least $1,000",
		"employment":      "Employment information is required",
		"income":          "Annual income is required",
		"existing_loan":   "Existing loan amount cannot be negative",
		"credit_score":    "Credit score must be between 300-850",
		"source_of_funds": "Source of funds is required",
	})
)
