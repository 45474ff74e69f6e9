package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldDistID      = "distribution_id"
	FieldJobID       = "job_id"
	FieldProfile     = "profile"
	FieldPartners    = "partner_count"
	FieldAmountCents = "amount_cents"
	FieldAttempts    = "attempts"
	FieldBackend     = "backend"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentEngine  = "engine"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentVision  = "vision"
	ComponentEvents  = "events"
	ComponentCache   = "cache"
)
