package validate

// Validation codes carried on findings. Codes are part of the API
// contract; clients key remediation hints off them.
const (
	CodeSchemaValidation         = "SCHEMA_VALIDATION"
	CodeInvalidPeriod            = "INVALID_PERIOD"
	CodeLongPeriod               = "LONG_PERIOD"
	CodeNoDirectors              = "NO_DIRECTORS"
	CodeFirstYearComparatives    = "FIRST_YEAR_COMPARATIVES"
	CodeMissingComparatives      = "MISSING_COMPARATIVES"
	CodeNegativeTurnover         = "NEGATIVE_TURNOVER"
	CodeNegativeCash             = "NEGATIVE_CASH"
	CodeNegativeShareCapital     = "NEGATIVE_SHARE_CAPITAL"
	CodeMissingShareCapital      = "MISSING_SHARE_CAPITAL"
	CodeMissingEmployeeCount     = "MISSING_EMPLOYEE_COUNT"
	CodeMissingLoanNoteText      = "MISSING_LOAN_NOTE_TEXT"
	CodeMissingCommitmentsText   = "MISSING_COMMITMENTS_TEXT"
	CodeNegativeShareCount       = "NEGATIVE_SHARE_COUNT"
	CodeNegativeNominalValue     = "NEGATIVE_NOMINAL_VALUE"
	CodeMissingDirectorName      = "MISSING_DIRECTOR_NAME"
	CodeMissingApprovalDate      = "MISSING_APPROVAL_DATE"
	CodeInconsistentFramework    = "INCONSISTENT_FRAMEWORK"
	CodeRetainedEarningsMismatch = "RETAINED_EARNINGS_MISMATCH"
	CodeBalanceSheetImbalance    = "BALANCE_SHEET_IMBALANCE"
)
