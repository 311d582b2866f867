package config

import (
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Addr    string
	DBUrl   string
	Debug   bool
	LogJSON bool
}

// LoadEnv reads a .env file into the process environment, if there is one.
// Variables already set are left alone.
func LoadEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "config.load_env")
	}
	return nil
}

// ParseFlags reads the command line. Flags left unset fall back to
// HOST, PORT, DATABASE_URL, DEBUG and LOG_JSON.
func ParseFlags(args []string) (cfg Config, err error) {
	fs := flag.NewFlagSet("survey-audit", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", "", "listen host name (default 0.0.0.0)")
	var port uint
	fs.UintVar(&port, "port", 0, "listen port number (default 8000)")
	fs.StringVar(&cfg.DBUrl, "db-url", "", "path to SQLite3 DB file (default survey.sqlite)")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "log as JSON lines")

	if err = fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if host == "" {
		host = envOr("HOST", "0.0.0.0")
	}
	if port == 0 {
		p, err := strconv.ParseUint(envOr("PORT", "8000"), 10, 16)
		if err != nil {
			return Config{}, errors.New("invalid PORT env variable")
		}
		port = uint(p)
	}
	if cfg.DBUrl == "" {
		cfg.DBUrl = envOr("DATABASE_URL", "survey.sqlite")
	}
	if !set["debug"] {
		cfg.Debug, err = envBool("DEBUG")
		if err != nil {
			return Config{}, err
		}
	}
	if !set["log-json"] {
		cfg.LogJSON, err = envBool("LOG_JSON")
		if err != nil {
			return Config{}, err
		}
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	return cfg, nil
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Errorf("invalid %s env variable", key)
	}
	return b, nil
}
