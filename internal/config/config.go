package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App                 App                 `mapstructure:",squash"`
	Server              Server              `mapstructure:",squash"`
	Database            Database            `mapstructure:",squash"`
	Auth                Auth                `mapstructure:",squash"`
	Ledger              Ledger              `mapstructure:",squash"`
	Analytics           Analytics           `mapstructure:",squash"`
	MetricsSnapshotSync MetricsSnapshotSync `mapstructure:",squash"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
}

type Auth struct {
	Secret string `mapstructure:"auth_secret"`
}

// Ledger configures the upload parser and the field classifier. The header
// vocabulary is marketplace-specific, so the term lists are injected here
// instead of being hard-coded; the defaults match the Ozon back-office
// export.
type Ledger struct {
	Delimiter          string   `mapstructure:"ledger_delimiter"`
	Quote              string   `mapstructure:"ledger_quote"`
	IntegerHeaderTerms []string `mapstructure:"ledger_integer_header_terms"`
	DecimalHeaderTerms []string `mapstructure:"ledger_decimal_header_terms"`
}

// Analytics configures how the aggregation engine partitions the corpus.
// Accrual-type values and cost service groups follow the marketplace
// vocabulary as well.
type Analytics struct {
	SaleAccrualType   string   `mapstructure:"analytics_sale_accrual_type"`
	ReturnAccrualType string   `mapstructure:"analytics_return_accrual_type"`
	CostServiceGroups []string `mapstructure:"analytics_cost_service_groups"`
	TopProductsLimit  int      `mapstructure:"analytics_top_products_limit"`
}

type MetricsSnapshotSync struct {
	CronSchedule  string `mapstructure:"metrics_snapshot_sync_cron"`
	Enabled       bool   `mapstructure:"metrics_snapshot_sync_enabled"`
	RetentionDays int    `mapstructure:"metrics_snapshot_retention_days"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/ozon_analytics")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")

	viper.SetDefault("AUTH_SECRET", "your_secret_key")

	viper.SetDefault("LEDGER_DELIMITER", ",")
	viper.SetDefault("LEDGER_QUOTE", `"`)
	viper.SetDefault("LEDGER_INTEGER_HEADER_TERMS", "Количество")
	viper.SetDefault("LEDGER_DECIMAL_HEADER_TERMS", "Цена,Сумма,%,часы")

	viper.SetDefault("ANALYTICS_SALE_ACCRUAL_TYPE", "Продажа")
	viper.SetDefault("ANALYTICS_RETURN_ACCRUAL_TYPE", "Возврат")
	viper.SetDefault("ANALYTICS_COST_SERVICE_GROUPS", "Маркетинг,Логистика")
	viper.SetDefault("ANALYTICS_TOP_PRODUCTS_LIMIT", 5)

	// Snapshots run before business hours; disabled unless explicitly turned on
	viper.SetDefault("METRICS_SNAPSHOT_SYNC_CRON", "0 5 * * *")
	viper.SetDefault("METRICS_SNAPSHOT_SYNC_ENABLED", false)
	// Zero keeps snapshots forever
	viper.SetDefault("METRICS_SNAPSHOT_RETENTION_DAYS", 90)

	viper.SetDefault("LOG_LEVEL", "debug")
}

func NewConfig() (*Config, error) {
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Using variables loaded by godotenv (viper could not read .env): ", err)
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

// loadEnvFile loads a .env file from the usual local development locations.
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Could not determine the current directory: ", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../.env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Info(".env file loaded from: ", location)
			return
		}
	}

	logrus.Warn("No .env file found in any known location")
}
