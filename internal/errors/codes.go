package errors

// ErrorCode represents a standardized error code used throughout the API
type ErrorCode string

// Authentication error codes (AUTH_*)
const (
	AuthInvalidCredentials     ErrorCode = "AUTH_001"
	AuthMissingToken           ErrorCode = "AUTH_002"
	AuthExpiredToken           ErrorCode = "AUTH_003"
	AuthInvalidTokenFormat     ErrorCode = "AUTH_004"
	AuthInsufficientPermission ErrorCode = "AUTH_005"
	AuthRevokedToken           ErrorCode = "AUTH_006"
)

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
	ValidationInvalidDate   ErrorCode = "VALIDATION_004"
)

// Ledger error codes (LEDGER_*)
const (
	LedgerTransactionNotFound ErrorCode = "LEDGER_001"
	LedgerPolicyViolation     ErrorCode = "LEDGER_002"
	LedgerUserAlreadyExists   ErrorCode = "LEDGER_003"
	LedgerUserNotFound        ErrorCode = "LEDGER_004"
)

// Settlement error codes (SETTLEMENT_*)
const (
	SettlementDuplicate       ErrorCode = "SETTLEMENT_001"
	SettlementNegativeBalance ErrorCode = "SETTLEMENT_002"
)

// Cash count error codes (CASHCOUNT_*)
const (
	CashCountNotFound ErrorCode = "CASHCOUNT_001"
)

// Category error codes (CATEGORY_*)
const (
	CategoryNotFound ErrorCode = "CATEGORY_001"
	CategoryConflict ErrorCode = "CATEGORY_002"
)

// Invoice error codes (INVOICE_*)
const (
	InvoiceNotFound  ErrorCode = "INVOICE_001"
	InvoiceDuplicate ErrorCode = "INVOICE_002"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_004"
	SystemRouteNotFound      ErrorCode = "SYSTEM_005"
	SystemMethodNotAllowed   ErrorCode = "SYSTEM_006"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	// Authentication errors
	AuthInvalidCredentials:     "Invalid username or password",
	AuthMissingToken:           "Authorization token is required",
	AuthExpiredToken:           "Authorization token has expired",
	AuthInvalidTokenFormat:     "Invalid authorization token format",
	AuthInsufficientPermission: "Insufficient permissions to access this resource",
	AuthRevokedToken:           "Authorization token has been revoked",

	// Validation errors
	ValidationGeneral:       "Validation failed",
	ValidationRequiredField: "Required field is missing",
	ValidationInvalidFormat: "Invalid field format",
	ValidationInvalidDate:   "Invalid date format or range",

	// Ledger errors
	LedgerTransactionNotFound: "Transaction not found",
	LedgerPolicyViolation:     "Operation not permitted",
	LedgerUserAlreadyExists:   "A user with this username already exists",
	LedgerUserNotFound:        "User not found",

	// Settlement errors
	SettlementDuplicate:       "The period has already been settled",
	SettlementNegativeBalance: "The month-end balance is negative and cannot be carried forward",

	CashCountNotFound: "Cash count session not found",

	// Category errors
	CategoryNotFound: "Category not found",
	CategoryConflict: "Category name is taken or the category is in use",

	// Invoice errors
	InvoiceNotFound:  "Invoice not found",
	InvoiceDuplicate: "An invoice with this number is already registered",

	// System errors
	SystemInternalError:      "An unexpected error occurred. Please contact support with trace ID",
	SystemDatabaseError:      "Database error",
	SystemServiceUnavailable: "Service temporarily unavailable",
	SystemRateLimitExceeded:  "Rate limit exceeded. Please try again later",
	SystemRouteNotFound:      "The requested resource was not found",
	SystemMethodNotAllowed:   "Method not allowed",
}

// GetErrorMessage returns the default message for a given error code
// If the error code is not found, it returns a generic error message
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a valid registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}
