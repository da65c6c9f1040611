package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// envconfig tags so the full variable names stay greppable.
const EnvPrefix = "DEALERDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "DEALERDESK_APP_ENV"
	EnvPort     = "DEALERDESK_APP_PORT"
	EnvLogLevel = "DEALERDESK_LOG_LEVEL"

	EnvDBDSN    = "DEALERDESK_DB_DSN"
	EnvDBDriver = "DEALERDESK_DB_DRIVER"
	EnvDBHost   = "DEALERDESK_DB_HOST"
	EnvDBUser   = "DEALERDESK_DB_USER"
	EnvDBName   = "DEALERDESK_DB_NAME"

	EnvRedisURL = "DEALERDESK_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
