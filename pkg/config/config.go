package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env
// y opcionalmente archivo .env).
type Config struct {
	App       AppConfig
	DB        DBConfig
	HTTP      HTTPConfig
	JWT       JWTConfig
	Catalog   CatalogConfig
	Pricing   PricingConfig
	Numbering NumberingConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN construye el connection string con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig autenticación del panel de administración.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// CatalogConfig catálogo externo de e-commerce.
type CatalogConfig struct {
	BaseURL        string
	ItemTimeout    time.Duration // timeout por ítem en el sourcing
	RequestTimeout time.Duration // timeout de cada petición HTTP
	DefaultTaxRate string        // tasa porcentual del fallback, ej. "20"
}

// PricingConfig disciplina de precios: tasas de IVA admitidas.
type PricingConfig struct {
	TaxRates []string // porcentajes admitidos, ej. 0,7,10,20
}

// NumberingConfig autoridad de numeración.
type NumberingConfig struct {
	MaxAttempts int           // intentos de Allocate ante colisiones
	PolicyTTL   time.Duration // vigencia de la caché de políticas
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde
// archivo .env). Las env vars tienen prioridad.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "docufact"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "docufact"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "docufact"),
		},
		Catalog: CatalogConfig{
			BaseURL:        getString(v, "CATALOG_BASE_URL", "http://localhost:9000"),
			ItemTimeout:    time.Duration(getInt(v, "CATALOG_ITEM_TIMEOUT_MS", 2000)) * time.Millisecond,
			RequestTimeout: time.Duration(getInt(v, "CATALOG_REQUEST_TIMEOUT_MS", 1500)) * time.Millisecond,
			DefaultTaxRate: getString(v, "CATALOG_DEFAULT_TAX_RATE", "20"),
		},
		Pricing: PricingConfig{
			TaxRates: strings.Split(getString(v, "PRICING_TAX_RATES", "0,7,10,20"), ","),
		},
		Numbering: NumberingConfig{
			MaxAttempts: getInt(v, "NUMBERING_MAX_ATTEMPTS", 5),
			PolicyTTL:   time.Duration(getInt(v, "NUMBERING_POLICY_TTL_SECONDS", 300)) * time.Second,
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
