package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Google        GoogleConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	Events        EventsConfig
	PubSub        PubSubConfig
	Kafka         KafkaConfig
	Search        SearchConfig
	Sendgrid      SendgridConfig
	Outbox        OutboxConfig
	Eventing      EventingConfig
	Maintenance   MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Events.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"DAISYDAYS_APP_ENV" required:"true"`
	Port         string   `envconfig:"DAISYDAYS_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"DAISYDAYS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"DAISYDAYS_LOG_WARN_STACK" default:"false"`
	AdminEmails  []string `envconfig:"DAISYDAYS_ADMIN_EMAILS"`
	StoreName    string   `envconfig:"DAISYDAYS_STORE_NAME" default:"Daisy Days"`
	CORSOrigins  []string `envconfig:"DAISYDAYS_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// IsAdminEmail reports whether the address is listed for admin promotion.
func (a AppConfig) IsAdminEmail(email string) bool {
	email = strings.TrimSpace(email)
	for _, candidate := range a.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(candidate), email) {
			return true
		}
	}
	return false
}

type DBConfig struct {
	DSN    string `envconfig:"DAISYDAYS_DB_DSN"`
	Driver string `envconfig:"DAISYDAYS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DAISYDAYS_DB_HOST"`
	Port     int    `envconfig:"DAISYDAYS_DB_PORT" default:"5432"`
	User     string `envconfig:"DAISYDAYS_DB_USER"`
	Password string `envconfig:"DAISYDAYS_DB_PASSWORD"`
	Name     string `envconfig:"DAISYDAYS_DB_NAME"`
	SSLMode  string `envconfig:"DAISYDAYS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DAISYDAYS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DAISYDAYS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DAISYDAYS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DAISYDAYS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"DAISYDAYS_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DAISYDAYS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DAISYDAYS_REDIS_ADDR"`
	Password     string        `envconfig:"DAISYDAYS_REDIS_PASSWORD"`
	DB           int           `envconfig:"DAISYDAYS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DAISYDAYS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DAISYDAYS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DAISYDAYS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DAISYDAYS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DAISYDAYS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DAISYDAYS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DAISYDAYS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DAISYDAYS_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"DAISYDAYS_SESSION_TTL_MINUTES" default:"0"`
}

// AccessTTL returns the lifetime of a minted access token.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// SessionTTL returns how long a login session is kept in Redis. It defaults to the
// access token lifetime.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return j.AccessTTL()
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DAISYDAYS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DAISYDAYS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DAISYDAYS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DAISYDAYS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DAISYDAYS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"DAISYDAYS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"DAISYDAYS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"DAISYDAYS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"DAISYDAYS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"DAISYDAYS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"DAISYDAYS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DAISYDAYS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DAISYDAYS_AUTO_MIGRATE" default:"false"`
}

type GoogleConfig struct {
	ClientID string `envconfig:"DAISYDAYS_GOOGLE_CLIENT_ID"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"DAISYDAYS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"DAISYDAYS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"DAISYDAYS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"DAISYDAYS_GCS_BUCKET_NAME"`
	PublicBase string `envconfig:"DAISYDAYS_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	Prefix     string `envconfig:"DAISYDAYS_GCS_OBJECT_PREFIX" default:"daisydays"`
}

type MediaConfig struct {
	MaxUploadMB      int `envconfig:"DAISYDAYS_MAX_UPLOAD_MB" default:"10"`
	MaxProductImages int `envconfig:"DAISYDAYS_MAX_PRODUCT_IMAGES" default:"8"`
}

// MaxUploadBytes returns the per-request multipart ceiling.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

type EventsConfig struct {
	Broker string `envconfig:"DAISYDAYS_EVENTS_BROKER" default:"pubsub"`
}

func (e EventsConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(e.Broker)) {
	case BrokerPubSub, BrokerKafka:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvEventsBroker, BrokerPubSub, BrokerKafka)
	}
}

// UsesKafka reports whether events flow through Kafka instead of Pub/Sub.
func (e EventsConfig) UsesKafka() bool {
	return strings.EqualFold(strings.TrimSpace(e.Broker), BrokerKafka)
}

type PubSubConfig struct {
	OrdersTopic               string `envconfig:"DAISYDAYS_PUBSUB_ORDERS_TOPIC" default:"dd-domain-events"`
	NotificationsSubscription string `envconfig:"DAISYDAYS_PUBSUB_NOTIFICATIONS_SUBSCRIPTION" default:"dd-notifications"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"DAISYDAYS_KAFKA_BROKERS"`
	Topic   string   `envconfig:"DAISYDAYS_KAFKA_TOPIC" default:"daisydays.domain-events"`
	GroupID string   `envconfig:"DAISYDAYS_KAFKA_GROUP_ID" default:"daisydays-notifications"`
}

type SearchConfig struct {
	Addresses []string `envconfig:"DAISYDAYS_SEARCH_ADDRESSES"`
	Username  string   `envconfig:"DAISYDAYS_SEARCH_USERNAME"`
	Password  string   `envconfig:"DAISYDAYS_SEARCH_PASSWORD"`
	Index     string   `envconfig:"DAISYDAYS_SEARCH_PRODUCT_INDEX" default:"products"`
}

// Enabled reports whether an Elasticsearch cluster is configured.
func (s SearchConfig) Enabled() bool {
	return len(s.Addresses) > 0
}

type SendgridConfig struct {
	APIKey      string `envconfig:"DAISYDAYS_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"DAISYDAYS_SENDGRID_FROM_EMAIL" default:"orders@daisydays.shop"`
	FromName    string `envconfig:"DAISYDAYS_SENDGRID_FROM_NAME" default:"Daisy Days"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DAISYDAYS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DAISYDAYS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DAISYDAYS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type MaintenanceConfig struct {
	Interval            time.Duration `envconfig:"DAISYDAYS_MAINTENANCE_INTERVAL" default:"6h"`
	OutboxRetentionDays int           `envconfig:"DAISYDAYS_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays    int           `envconfig:"DAISYDAYS_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
	BacklogWarnAt       int64         `envconfig:"DAISYDAYS_OUTBOX_BACKLOG_WARN" default:"500"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"DAISYDAYS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range legacyDBEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
