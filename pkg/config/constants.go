package config

const (
	// EnvPrefix is the envconfig prefix shared by every section.
	EnvPrefix = "KOPPOS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "KOPPOS_DB_DSN"
	EnvDBHost = "KOPPOS_DB_HOST"
	EnvDBUser = "KOPPOS_DB_USER"
	EnvDBName = "KOPPOS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
