package config

const (
	EnvPrefix = "SHIPLIST"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv         = "SHIPLIST_APP_ENV"
	EnvPort           = "SHIPLIST_APP_PORT"
	EnvDBDSN          = "SHIPLIST_DB_DSN"
	EnvDBHost         = "SHIPLIST_DB_HOST"
	EnvDBUser         = "SHIPLIST_DB_USER"
	EnvDBName         = "SHIPLIST_DB_NAME"
	EnvDBPassword     = "SHIPLIST_DB_PASSWORD"
	EnvUseSQLite      = "SHIPLIST_USE_SQLITE"
	EnvRedisURL       = "SHIPLIST_REDIS_URL"
	EnvJWTSecret      = "SHIPLIST_JWT_SECRET"
	EnvJWTIssuer      = "SHIPLIST_JWT_ISSUER"
	EnvSessionTTL     = "SHIPLIST_SESSION_TTL"
	EnvGCPProjectID   = "SHIPLIST_GCP_PROJECT_ID"
	EnvPubSubMfgTopic = "SHIPLIST_PUBSUB_MANUFACTURING_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
