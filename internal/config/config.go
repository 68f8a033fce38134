package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env          string             `yaml:"env" env-default:"local"`
	DSN          string             `yaml:"dsn" env:"DSN" env-required:"true"`
	LandingPath  string             `yaml:"landing_path" env-default:"/chatRoomList"`
	HTTP         HTTPConfig         `yaml:"http"`
	Token        TokenConfig        `yaml:"token"`
	Cookie       CookieConfig       `yaml:"cookie"`
	RefreshStore RefreshStoreConfig `yaml:"refresh_store"`
	Redis        RedisConf          `yaml:"redis"`
	Password     PasswordConfig     `yaml:"password"`
	SeedUsers    []SeedUser         `yaml:"seed_users"`
}

type HTTPConfig struct {
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
}

type TokenConfig struct {
	Secret     string        `yaml:"secret" env:"TOKEN_SECRET" env-required:"true"`
	Issuer     string        `yaml:"issuer" env-default:"chat_auth"`
	AccessTTL  time.Duration `yaml:"access_ttl" env-default:"30m"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env-default:"336h"`
}

// CookieConfig describes the refresh token cookie. Insecure drops the Secure
// attribute and is meant for plain-http local runs only.
type CookieConfig struct {
	Name     string `yaml:"name" env-default:"refreshToken"`
	Path     string `yaml:"path" env-default:"/"`
	Insecure bool   `yaml:"insecure"`
}

// RefreshStoreConfig selects where refresh tokens live: redis, postgres or memory.
type RefreshStoreConfig struct {
	Backend       string        `yaml:"backend" env-default:"redis"`
	SweepInterval time.Duration `yaml:"sweep_interval" env-default:"0s"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db"`
}

type PasswordConfig struct {
	Algorithm  string `yaml:"algorithm" env-default:"bcrypt"`
	BcryptCost int    `yaml:"bcrypt_cost" env-default:"10"`
}

type SeedUser struct {
	Email    string   `yaml:"email"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
