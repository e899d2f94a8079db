package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldStudentID  = "student_id"
	FieldPaymentID  = "payment_id"
	FieldMonth      = "month"
	FieldAmount     = "amount_cents"
)

// Standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentBilling = "billing"
	ComponentExport  = "export"
	ComponentCache   = "cache"
	ComponentAuth    = "auth"
)
