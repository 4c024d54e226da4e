package log

// Common field names for structured logging.
const (
	FieldComponent        = "component"
	FieldError            = "error"
	FieldOperation        = "operation"
	FieldKey              = "key"
	FieldMonth            = "month"
	FieldTransactionID    = "transaction_id"
	FieldTransactionType  = "transaction_type"
	FieldBudgetID         = "budget_id"
	FieldCategoryID       = "category_id"
	FieldAmountCents      = "amount_cents"
	FieldTransactionCount = "transaction_count"
	FieldBudgetCount      = "budget_count"
	FieldMethod           = "method"
	FieldPath             = "path"
	FieldStatusCode       = "status_code"
	FieldDuration         = "duration_ms"
	FieldQueue            = "queue"
	FieldExchange         = "exchange"
	FieldSpreadsheetID    = "spreadsheet_id"
)

// Standard component names.
const (
	ComponentApp     = "app"
	ComponentEngine  = "engine"
	ComponentHTTP    = "http"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
	ComponentBackend = "backend"
)
