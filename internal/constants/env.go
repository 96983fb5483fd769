// Package constants provides centralized definitions of constants used throughout the application
package constants

// Environment variable names
const (
	// EnvAPIPort is the port the HTTP API listens on
	EnvAPIPort = "API_PORT"
	// EnvLogLevel is the logrus level name (trace, debug, info, warn, error)
	EnvLogLevel = "LOG_LEVEL"

	// EnvDBHost is the PostgreSQL host
	EnvDBHost = "DB_HOST"
	// EnvDBPort is the PostgreSQL port
	EnvDBPort = "DB_PORT"
	// EnvDBUser is the PostgreSQL user
	EnvDBUser = "DB_USER"
	// EnvDBPassword is the PostgreSQL password
	EnvDBPassword = "DB_PASSWORD"
	// EnvDBName is the PostgreSQL database name
	EnvDBName = "DB_NAME"
	// EnvDBSSLMode enables TLS to the database when set to "enable"
	EnvDBSSLMode = "DB_SSL_MODE"

	// EnvSMTPHost is the SMTP relay host used for purchase orders
	EnvSMTPHost = "SMTP_HOST"
	// EnvSMTPPort is the SMTP relay port
	EnvSMTPPort = "SMTP_PORT"
	// EnvSenderEmail is the account purchase orders are sent from
	EnvSenderEmail = "SENDER_EMAIL"
	// EnvSenderPassword is the password of the sender account
	EnvSenderPassword = "SENDER_PASSWORD"
	// EnvReceiverEmail is the default purchase-order recipient
	EnvReceiverEmail = "RECEIVER_EMAIL"
	// EnvPurchaseOrderBody is the plain-text body of purchase-order mails
	EnvPurchaseOrderBody = "PURCHASE_ORDER_BODY"

	// EnvBOMOptimisticLocking rejects BOM writes based on a stale read when "true"
	EnvBOMOptimisticLocking = "BOM_OPTIMISTIC_LOCKING"
	// EnvWeekStatusCron is the cron spec of the week status refresh job
	EnvWeekStatusCron = "WEEK_STATUS_CRON"
)
