package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "SELFY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "SELFY_APP_ENV"
	EnvPort       = "SELFY_APP_PORT"
	EnvDBDSN      = "SELFY_DB_DSN"
	EnvDBHost     = "SELFY_DB_HOST"
	EnvDBUser     = "SELFY_DB_USER"
	EnvDBName     = "SELFY_DB_NAME"
	EnvRedisURL   = "SELFY_REDIS_URL"
	EnvJWTSecret  = "SELFY_JWT_SECRET"
	EnvJWTIssuer  = "SELFY_JWT_ISSUER"
	EnvJWTExpMins = "SELFY_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
