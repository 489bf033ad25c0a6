package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// Context keys
	ContextKeyUserID    = "user_id"
	ContextKeyIsAdmin   = "is_admin"
	ContextKeyRequestID = "request_id"

	// Database table names
	TableUsers           = "users"
	TableLicenses        = "licenses"
	TablePayments        = "payments"
	TableActivationKeys  = "activation_keys"
	TableHWIDResetAudits = "hwid_reset_audits"
)
