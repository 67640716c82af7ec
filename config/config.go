package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Game     GameConfig     `mapstructure:"game"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // memory | sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
	// SlowThreshold logs queries slower than this at warn. Zero disables it.
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type GameConfig struct {
	// DefaultLocationID is the map used when a user has no last known location.
	DefaultLocationID int64 `mapstructure:"default_location_id"`
	InventoryPageSize int   `mapstructure:"inventory_page_size"`
	ShopPageSize      int   `mapstructure:"shop_page_size"`
	// RoomChatter fans chat and position updates out to the whole room.
	// When false they are echoed to the sender only.
	RoomChatter    bool          `mapstructure:"room_chatter"`
	LookupCacheTTL time.Duration `mapstructure:"lookup_cache_ttl"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	StatsInterval  time.Duration `mapstructure:"stats_interval"`
}

type SecurityConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	BcryptCost     int     `mapstructure:"bcrypt_cost"`
	// AllowedOrigins lists the WebSocket origins that are permitted.
	// An empty slice allows all origins (useful for local development only).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// AdminAllowedIPs restricts the admin API to these IPs or CIDRs. Empty allows all.
	AdminAllowedIPs []string `mapstructure:"admin_allowed_ips"`
	// WSMessageRPS and WSMessageBurst bound inbound messages per connection.
	WSMessageRPS   float64 `mapstructure:"ws_message_rps"`
	WSMessageBurst int     `mapstructure:"ws_message_burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads config from the given YAML file path. Every key may be
// overridden from the environment with the MY2D_ prefix
// (server.port -> MY2D_SERVER_PORT).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MY2D")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/world.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("database.slow_threshold", "200ms")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("game.default_location_id", 1)
	v.SetDefault("game.inventory_page_size", 20)
	v.SetDefault("game.shop_page_size", 5)
	v.SetDefault("game.room_chatter", true)
	v.SetDefault("game.lookup_cache_ttl", "30s")
	v.SetDefault("game.sweep_interval", "1m")
	v.SetDefault("game.stats_interval", "5m")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.ws_message_rps", 20)
	v.SetDefault("security.ws_message_burst", 40)
	v.SetDefault("log.level", "info")
}
