package config

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv       = "MYSELLKIT_APP_ENV"
	EnvAppPort      = "MYSELLKIT_APP_PORT"
	EnvLogLevel     = "MYSELLKIT_LOG_LEVEL"
	EnvAPIBase      = "MYSELLKIT_API_BASE"
	EnvCheckoutBase = "MYSELLKIT_CHECKOUT_BASE"
	EnvRedisURL     = "MYSELLKIT_REDIS_URL"
	EnvUseSQLite    = "MYSELLKIT_USE_SQLITE"
	EnvSQLitePath   = "MYSELLKIT_SQLITE_PATH"
)
