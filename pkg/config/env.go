package config

const (
	EnvPrefix = "DAISYDAYS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv      = "DAISYDAYS_APP_ENV"
	EnvPort        = "DAISYDAYS_APP_PORT"
	EnvLogLevel    = "DAISYDAYS_LOG_LEVEL"
	EnvAdminEmails = "DAISYDAYS_ADMIN_EMAILS"

	EnvDBDSN  = "DAISYDAYS_DB_DSN"
	EnvDBHost = "DAISYDAYS_DB_HOST"
	EnvDBUser = "DAISYDAYS_DB_USER"
	EnvDBName = "DAISYDAYS_DB_NAME"

	EnvRedisURL = "DAISYDAYS_REDIS_URL"

	EnvJWTSecret              = "DAISYDAYS_JWT_SECRET"
	EnvJWTIssuer              = "DAISYDAYS_JWT_ISSUER"
	EnvJWTExpMins             = "DAISYDAYS_JWT_EXPIRATION_MINUTES"
	EnvSessionTTLMinutes      = "DAISYDAYS_SESSION_TTL_MINUTES"
	EnvGoogleClientID         = "DAISYDAYS_GOOGLE_CLIENT_ID"
	EnvGCPProjectID           = "DAISYDAYS_GCP_PROJECT_ID"
	EnvGCSBucket              = "DAISYDAYS_GCS_BUCKET_NAME"
	EnvEventsBroker           = "DAISYDAYS_EVENTS_BROKER"
	EnvPubSubOrdersTopic      = "DAISYDAYS_PUBSUB_ORDERS_TOPIC"
	EnvPubSubNotificationsSub = "DAISYDAYS_PUBSUB_NOTIFICATIONS_SUBSCRIPTION"
	EnvKafkaBrokers           = "DAISYDAYS_KAFKA_BROKERS"
	EnvSearchAddresses        = "DAISYDAYS_SEARCH_ADDRESSES"
	EnvSendgridAPIKey         = "DAISYDAYS_SENDGRID_API_KEY"
)

// Event broker kinds accepted by EventsConfig.Broker.
const (
	BrokerPubSub = "pubsub"
	BrokerKafka  = "kafka"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
