package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry explicit names.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STADIUMCARD_DB_DSN"
	EnvDBHost = "STADIUMCARD_DB_HOST"
	EnvDBUser = "STADIUMCARD_DB_USER"
	EnvDBName = "STADIUMCARD_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
