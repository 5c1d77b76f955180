package config

const (
	EnvPrefix = "TINDAGO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "TINDAGO_DB_DSN"
	EnvDBHost = "TINDAGO_DB_HOST"
	EnvDBUser = "TINDAGO_DB_USER"
	EnvDBName = "TINDAGO_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
