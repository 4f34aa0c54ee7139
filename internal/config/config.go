// Package config загружает конфигурацию Colony.
//
// Порядок применения: значения по умолчанию, затем YAML-файл
// (с подстановкой ${ENV}), затем переопределения из переменных окружения.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath — путь к файлу конфигурации по умолчанию.
const DefaultPath = "config/colony.yaml"

type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Engine   EngineConfig   `yaml:"engine"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Registry RegistryConfig `yaml:"registry"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	NATS     NATSConfig     `yaml:"nats"`
	Database DatabaseConfig `yaml:"database"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type EngineConfig struct {
	Mode        string `yaml:"mode"`
	MaxParallel int    `yaml:"max_parallel"`
}

// GatewayConfig — внешний gateway для задач агентов.
// Пустой URL — задачи выполняются локальными executor'ами.
type GatewayConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

type RegistryConfig struct {
	GraphTTL      time.Duration `yaml:"graph_ttl"`
	SwarmTTL      time.Duration `yaml:"swarm_ttl"`
	MaxGraphs     int           `yaml:"max_graphs"`
	MaxSwarms     int           `yaml:"max_swarms"`
	SweepSchedule string        `yaml:"sweep_schedule"`
}

// AMQPConfig — публикация событий в RabbitMQ. Пустой URL отключает.
type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// NATSConfig — публикация событий в NATS.
// Embedded поднимает встроенный сервер на Port; иначе используется URL.
type NATSConfig struct {
	URL      string `yaml:"url"`
	Embedded bool   `yaml:"embedded"`
	Port     int    `yaml:"port"`
}

// DatabaseConfig — журнал выполненных графов и задач. Пустой URL отключает.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

func defaults() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Engine: EngineConfig{
			Mode: "parallel",
		},
		Gateway: GatewayConfig{
			Timeout: 30 * time.Second,
		},
		Registry: RegistryConfig{
			GraphTTL:      time.Hour,
			SwarmTTL:      time.Hour,
			MaxGraphs:     1000,
			MaxSwarms:     100,
			SweepSchedule: "@every 1m",
		},
		AMQP: AMQPConfig{
			Exchange: "colony.events",
		},
		NATS: NATSConfig{
			Port: 4222,
		},
	}
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	cfg := defaults()
	return &cfg
}

// Load читает конфигурацию из path. Пустой path — COLONY_CONFIG,
// затем DefaultPath. Отсутствие файла не ошибка.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("COLONY_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	// LOG_LEVEL / LOG_FORMAT
	if v := firstEnv("COLONY_LOG_LEVEL", "LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := firstEnv("COLONY_LOG_FORMAT", "LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("COLONY_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("COLONY_MODE"); v != "" {
		cfg.Engine.Mode = v
	}
	if v := os.Getenv("COLONY_MAX_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxParallel = n
		}
	}
	if v := os.Getenv("COLONY_GATEWAY_URL"); v != "" {
		cfg.Gateway.URL = v
	}
	if v := os.Getenv("COLONY_GATEWAY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Gateway.Timeout = d
		}
	}
	if v := os.Getenv("COLONY_SWEEP_SCHEDULE"); v != "" {
		cfg.Registry.SweepSchedule = v
	}
	if v := firstEnv("COLONY_AMQP_URL", "RABBITMQ_URL"); v != "" {
		cfg.AMQP.URL = v
	}
	if v := os.Getenv("COLONY_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("COLONY_NATS_EMBEDDED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.NATS.Embedded = b
		}
	}
	if v := os.Getenv("COLONY_NATS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.NATS.Port = port
		}
	}
	if v := firstEnv("COLONY_DATABASE_URL", "DB_URL"); v != "" {
		cfg.Database.URL = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
