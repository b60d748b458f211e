package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldChatID    = "chat_id"
	FieldState     = "state"
	FieldField     = "field"
	FieldLine      = "line"
	FieldText      = "text"
	FieldPath      = "path"
	FieldCategory  = "category"
	FieldAmount    = "amount"
	FieldCount     = "count"
	FieldSkipped   = "skipped"
	FieldIndex     = "index"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldEventType = "event_type"
	FieldAttempt   = "attempt"
	FieldDuration  = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentCodec   = "codec"
	ComponentBot     = "bot"
	ComponentConsole = "console"
	ComponentAMQP    = "amqp"
	ComponentStorage = "storage"
	ComponentSheets  = "sheets"
	ComponentWorker  = "worker"
	ComponentRender  = "render"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpAppend   = "append"
	OpImport   = "import"
	OpExport   = "export"
	OpDelete   = "delete"
	OpFilter   = "filter"
	OpSort     = "sort"
	OpBudget   = "budget"
	OpForecast = "forecast"
	OpRender   = "render"
	OpPush     = "push"
	OpPull     = "pull"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithChat(chatID int64) LogFields {
	f[FieldChatID] = chatID
	return f
}

// WithError adds the error text when err is non-nil
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the fields identifying a transaction in logs.
func (f LogFields) WithTransaction(category, amount string) LogFields {
	f[FieldCategory] = category
	f[FieldAmount] = amount
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
