package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	BrokerKindAMQP   = "amqp"
	BrokerKindPubSub = "pubsub"
)

const (
	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvDBDSN        = "STOREFRONT_DB_DSN"
	EnvDBHost       = "STOREFRONT_DB_HOST"
	EnvDBUser       = "STOREFRONT_DB_USER"
	EnvDBName       = "STOREFRONT_DB_NAME"
	EnvDBDriver     = "STOREFRONT_DB_DRIVER"
	EnvRedisURL     = "STOREFRONT_REDIS_URL"
	EnvJWTSecret    = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer    = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins   = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvBrokerKind   = "STOREFRONT_BROKER_KIND"
	EnvGCPProjectID = "STOREFRONT_GCP_PROJECT_ID"

	EnvPricingTaxRate       = "STOREFRONT_PRICING_TAX_RATE"
	EnvPricingFreeThreshold = "STOREFRONT_PRICING_FREE_SHIPPING_THRESHOLD"
	EnvPricingFlatShipping  = "STOREFRONT_PRICING_FLAT_SHIPPING"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
