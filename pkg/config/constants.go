package config

const EnvPrefix = "STORELANE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "STORELANE_DB_DSN"
	EnvDBHost = "STORELANE_DB_HOST"
	EnvDBUser = "STORELANE_DB_USER"
	EnvDBName = "STORELANE_DB_NAME"

	EnvCancellationWindow = "STORELANE_CANCELLATION_WINDOW"
	EnvPendingTTL         = "STORELANE_PENDING_ORDER_TTL"
	EnvShippingFlatCents  = "STORELANE_SHIPPING_FLAT_CENTS"
	EnvStripeMinCharge    = "STORELANE_STRIPE_MIN_CHARGE_CENTS"
	EnvDebitBaseURL       = "STORELANE_DEBIT_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
