package config

import "time"

type DBConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout"`
}

type RedisConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type RabbitMQConfig struct {
	BrokerURL        string `mapstructure:"broker_url" validate:"required"`
	ExchangeName     string `mapstructure:"exchange_name"`
	ExchangeType     string `mapstructure:"exchange_type"`
	ResultQueue      string `mapstructure:"result_queue"`
	ResultRoutingKey string `mapstructure:"result_routing_key"`
	AuditExchange    string `mapstructure:"audit_exchange"`
	AuditRoutingKey  string `mapstructure:"audit_routing_key"`
	WorkerCount      int    `mapstructure:"worker_count"`
}

type ResultConfig struct {
	WorkerCount int `mapstructure:"worker_count"`
	ChannelSize int `mapstructure:"channel_size"`
}

type DispatcherConfig struct {
	WorkerCount int           `mapstructure:"worker_count"`
	ChannelSize int           `mapstructure:"channel_size"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

type AuditConfig struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	PublishEvents bool          `mapstructure:"publish_events"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type SMSConfig struct {
	APIURL    string `mapstructure:"api_url"`
	AccountID string `mapstructure:"account_id"`
	AuthToken string `mapstructure:"auth_token"`
	From      string `mapstructure:"from"`
}

type ProvidersConfig struct {
	SMTP *SMTPConfig `mapstructure:"smtp"`
	SMS  *SMSConfig  `mapstructure:"sms"`
}

type StatusPageConfig struct {
	FeedCacheTTL time.Duration `mapstructure:"feed_cache_ttl"`
}

type Config struct {
	Env         string            `mapstructure:"env"`
	ServiceName string            `mapstructure:"service_name"`
	Port        int               `mapstructure:"port"`
	DB          *DBConfig         `mapstructure:"db" validate:"required"`
	Redis       *RedisConfig      `mapstructure:"redis" validate:"required"`
	RabbitMQ    *RabbitMQConfig   `mapstructure:"rabbitmq" validate:"required"`
	Result      *ResultConfig     `mapstructure:"result"`
	Dispatcher  *DispatcherConfig `mapstructure:"dispatcher"`
	Audit       *AuditConfig      `mapstructure:"audit"`
	Providers   *ProvidersConfig  `mapstructure:"providers"`
	StatusPage  *StatusPageConfig `mapstructure:"statuspage"`
}
