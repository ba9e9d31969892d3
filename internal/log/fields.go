package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldUserID    = "user_id"
	FieldExpenseID = "expense_id"
	FieldCategory  = "category_id"
	FieldCacheKey  = "cache_key"
	FieldCached    = "cached"
	FieldPage      = "page"
	FieldJTI       = "jti"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status_code"
	FieldDuration  = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentAuth     = "auth"
	ComponentSession  = "session"
	ComponentCache    = "cache"
	ComponentKV       = "kv"
	ComponentStorage  = "storage"
	ComponentExpense  = "expense"
	ComponentCategory = "category"
	ComponentEvents   = "events"
)
