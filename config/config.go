package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "STOREFRONT_CONFIG_FILE"

const defaultDownloadValidity = 24 * time.Hour

type download struct {
	Validity  time.Duration `mapstructure:"validity"`
	PublicURL string        `mapstructure:"public_url"`
}

type assets struct {
	Kind     string `mapstructure:"kind"`
	FSRoot   string `mapstructure:"fs_root"`
	HDFSAddr string `mapstructure:"hdfs_addr"`
	HDFSRoot string `mapstructure:"hdfs_root"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

type broker struct {
	Enabled            bool      `mapstructure:"enabled"`
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	OrdersPlacedTopic  string    `mapstructure:"orders_placed_topic"`
	TLS                brokerTLS `mapstructure:"tls"`
}

type stripeSecrets struct {
	APIKey        string `mapstructure:"api_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type email struct {
	Sender string `mapstructure:"sender"`
	APIKey string `mapstructure:"api_key"`
	APIURL string `mapstructure:"api_url"`
}

type Config struct {
	LogLevel       slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr string        `mapstructure:"http_server_addr"`
	SQLDB          string        `mapstructure:"sql_db"`
	Download       download      `mapstructure:"download"`
	Assets         assets        `mapstructure:"assets"`
	Broker         broker        `mapstructure:"broker"`
	Stripe         stripeSecrets `mapstructure:"stripe"`
	Email          email         `mapstructure:"email"`
}

func Load() Config {
	viper.SetConfigFile(getConfigFilepath())
	bindSecrets()

	err := viper.ReadInConfig()
	if err != nil {
		die(err)
	}

	var cfg Config
	err = viper.UnmarshalExact(&cfg)
	if err != nil {
		die(err)
	}

	if cfg.Download.Validity == 0 {
		cfg.Download.Validity = defaultDownloadValidity
	}

	return cfg
}

// Secrets come from the environment, never from the config file.
func bindSecrets() {
	_ = viper.BindEnv("stripe.api_key", "STOREFRONT_STRIPE_API_KEY")
	_ = viper.BindEnv("stripe.webhook_secret", "STOREFRONT_STRIPE_WEBHOOK_SECRET")
	_ = viper.BindEnv("email.sender", "STOREFRONT_EMAIL_SENDER")
	_ = viper.BindEnv("email.api_key", "STOREFRONT_EMAIL_API_KEY")
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	SQLDB=%q

	Download:
	Validity=%q
	PublicURL=%q

	Assets:
	Kind=%q
	FSRoot=%q
	HDFSAddr=%q

	BrokerConfig:
	Enabled=%t
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	OrdersPlacedTopic=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.SQLDB,
		c.Download.Validity,
		c.Download.PublicURL,
		c.Assets.Kind,
		c.Assets.FSRoot,
		c.Assets.HDFSAddr,
		c.Broker.Enabled,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.OrdersPlacedTopic,
	)
}
