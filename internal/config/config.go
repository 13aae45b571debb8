// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix - префикс переменных окружения, например PAYMASTER_RPC_LIST
const EnvPrefix = "PAYMASTER"

type Config struct {
	RPCList         []string `mapstructure:"rpc_list"`
	Commitment      string   `mapstructure:"commitment"`
	OracleURL       string   `mapstructure:"oracle_url"`
	OracleAPIKey    string   `mapstructure:"oracle_api_key"`
	OracleTimeoutMs int      `mapstructure:"oracle_timeout_ms"`
	DebugLogging    bool     `mapstructure:"debug_logging"`
	LogFile         string   `mapstructure:"log_file"`
	MetricsPushURL  string   `mapstructure:"metrics_push_url"`
}

const (
	DefaultCommitment      = string(rpc.CommitmentConfirmed)
	DefaultOracleURL       = "https://api.jup.ag/price/v2"
	DefaultOracleTimeoutMs = 5000
	DefaultLogFile         = "paymaster.log"
)

var keys = []string{
	"rpc_list",
	"commitment",
	"oracle_url",
	"oracle_api_key",
	"oracle_timeout_ms",
	"debug_logging",
	"log_file",
	"metrics_push_url",
}

// LoadConfig читает конфигурацию. Приоритет: флаги, окружение, файл, значения по умолчанию.
// path и flags необязательны.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"commitment":        DefaultCommitment,
		"oracle_url":        DefaultOracleURL,
		"oracle_timeout_ms": DefaultOracleTimeoutMs,
		"log_file":          DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := bindEnvironment(v); err != nil {
		return nil, err
	}
	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.RPCList = cleanList(cfg.RPCList)

	return &cfg, validateConfig(&cfg)
}

// CommitmentType возвращает уровень подтверждения для RPC-запросов
func (c *Config) CommitmentType() rpc.CommitmentType {
	return rpc.CommitmentType(c.Commitment)
}

// OracleTimeout возвращает таймаут HTTP-запроса к оракулу
func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.OracleTimeoutMs) * time.Millisecond
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURL(rpcURL, "http"); err != nil {
			return fmt.Errorf("invalid RPC URL %q: %w", rpcURL, err)
		}
	}

	switch rpc.CommitmentType(cfg.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}

	if err := validateURL(cfg.OracleURL, "http"); err != nil {
		return fmt.Errorf("invalid oracle URL %q: %w", cfg.OracleURL, err)
	}
	if cfg.OracleTimeoutMs <= 0 {
		return errors.New("invalid oracle_timeout_ms")
	}
	if cfg.MetricsPushURL != "" {
		if err := validateURL(cfg.MetricsPushURL, "http"); err != nil {
			return fmt.Errorf("invalid metrics push URL %q: %w", cfg.MetricsPushURL, err)
		}
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func bindEnvironment(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal видит только известные ключи, поэтому привязываем их явно
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

// bindFlags связывает флаги вида --rpc-list с ключами rpc_list
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !isKnownKey(key) || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

func isKnownKey(key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if clean := strings.TrimSpace(part); clean != "" {
				out = append(out, clean)
			}
		}
	}
	return out
}
