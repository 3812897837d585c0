package config

const EnvPrefix = "storefront"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageBackendMemory   = "memory"
	StorageBackendRedis    = "redis"
	StorageBackendSQLite   = "sqlite"
	StorageBackendPostgres = "postgres"
)

const (
	EnvAppEnv             = "STOREFRONT_APP_ENV"
	EnvPort               = "STOREFRONT_APP_PORT"
	EnvStorageBackend     = "STOREFRONT_STORAGE_BACKEND"
	EnvDBDSN              = "STOREFRONT_DB_DSN"
	EnvDBHost             = "STOREFRONT_DB_HOST"
	EnvDBUser             = "STOREFRONT_DB_USER"
	EnvDBName             = "STOREFRONT_DB_NAME"
	EnvRedisURL           = "STOREFRONT_REDIS_URL"
	EnvRedisAddr          = "STOREFRONT_REDIS_ADDR"
	EnvPersistDebounce    = "STOREFRONT_PERSIST_DEBOUNCE"
	EnvFreeShipping       = "STOREFRONT_FREE_SHIPPING_THRESHOLD"
	EnvTaxRate            = "STOREFRONT_TAX_RATE"
	EnvCouponsBaseURL     = "STOREFRONT_COUPONS_BASE_URL"
	EnvCouponsTimeout     = "STOREFRONT_COUPONS_TIMEOUT"
	EnvCORSAllowedOrigins = "STOREFRONT_CORS_ALLOWED_ORIGINS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
