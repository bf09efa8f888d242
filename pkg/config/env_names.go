package config

const (
	EnvPrefix = "CORELIA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "CORELIA_APP_ENV"
	EnvAppPort    = "CORELIA_APP_PORT"
	EnvDBPath     = "CORELIA_DB_PATH"
	EnvRedisURL   = "CORELIA_REDIS_URL"
	EnvBackendURL = "CORELIA_BACKEND_URL"
)
