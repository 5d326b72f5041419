package config

// EnvPrefix is the envconfig prefix shared by every service binary.
const EnvPrefix = "GATHERLY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "GATHERLY_DB_DSN"
	EnvDBHost = "GATHERLY_DB_HOST"
	EnvDBUser = "GATHERLY_DB_USER"
	EnvDBName = "GATHERLY_DB_NAME"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
