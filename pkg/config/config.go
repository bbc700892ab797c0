package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cbodonnell/suika/pkg/log"
)

// EnvPrefix is prepended to every environment variable read by this package
const EnvPrefix = "SUIKA_"

// LoadEnv loads variables from .env style files into the process
// environment. Missing files are ignored; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %v", file, err)
		}
		log.Debug("Loaded environment from %s", file)
	}
	return nil
}

type ServerConfig struct {
	Port             int
	LogLevel         log.LogLevel
	DatabaseURL      string
	OriginPatterns   []string
	WriteTimeout     time.Duration
	RoomListInterval time.Duration
	TLSCertFile      string
	TLSKeyFile       string
}

// ParseServerConfig reads server options from args, falling back to
// SUIKA_* variables looked up with getenv.
func ParseServerConfig(args []string, getenv func(string) string) (*ServerConfig, error) {
	env := envReader{getenv: getenv}
	flags := flag.NewFlagSet("server", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	port := flags.Int("port", env.int("PORT", 3000), "HTTP port to listen on")
	logLevel := flags.String("log-level", env.string("LOG_LEVEL", "info"), "Log level")
	databaseURL := flags.String("database-url", env.string("DATABASE_URL", "sqlite://suika.db"), "Room history database (sqlite://, postgresql://, memory://)")
	origins := flags.String("origins", env.string("ORIGINS", ""), "Comma separated websocket origin patterns")
	writeTimeout := flags.Duration("write-timeout", env.duration("WRITE_TIMEOUT", 5*time.Second), "Websocket write timeout")
	roomListInterval := flags.Duration("room-list-interval", env.duration("ROOM_LIST_INTERVAL", 2*time.Second), "How often idle clients are sent the room list, 0 to disable")
	tlsCert := flags.String("tls-cert", env.string("TLS_CERT", ""), "TLS certificate file")
	tlsKey := flags.String("tls-key", env.string("TLS_KEY", ""), "TLS key file")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %v", err)
	}
	if env.err != nil {
		return nil, env.err
	}

	level, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		return nil, err
	}
	if *port <= 0 || *port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", *port)
	}
	if (*tlsCert == "") != (*tlsKey == "") {
		return nil, fmt.Errorf("tls-cert and tls-key must be set together")
	}

	return &ServerConfig{
		Port:             *port,
		LogLevel:         level,
		DatabaseURL:      *databaseURL,
		OriginPatterns:   splitList(*origins),
		WriteTimeout:     *writeTimeout,
		RoomListInterval: *roomListInterval,
		TLSCertFile:      *tlsCert,
		TLSKeyFile:       *tlsKey,
	}, nil
}

type ClientConfig struct {
	ServerURL    string
	Room         string
	Username     string
	Encoding     string
	LogLevel     log.LogLevel
	DropInterval time.Duration
	Duration     time.Duration
	Seed         int64
}

// ParseClientConfig reads bot client options from args, falling back to
// SUIKA_* variables looked up with getenv.
func ParseClientConfig(args []string, getenv func(string) string) (*ClientConfig, error) {
	env := envReader{getenv: getenv}
	flags := flag.NewFlagSet("client", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	serverURL := flags.String("server", env.string("SERVER_URL", "ws://localhost:3000/ws"), "Websocket URL of the relay server")
	room := flags.String("room", env.string("ROOM", ""), "Room code to join")
	username := flags.String("username", env.string("USERNAME", "bot"), "Name shown to the other player")
	encoding := flags.String("encoding", env.string("ENCODING", "binary"), "Frame encoding (text or binary)")
	logLevel := flags.String("log-level", env.string("LOG_LEVEL", "info"), "Log level")
	dropInterval := flags.Duration("drop-interval", env.duration("DROP_INTERVAL", 1500*time.Millisecond), "Time between bot drops")
	duration := flags.Duration("duration", env.duration("DURATION", 0), "Stop after this long, 0 to run until the board dies")
	seed := flags.Int64("seed", env.int64("SEED", 0), "Bot input seed, 0 for the clock")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %v", err)
	}
	if env.err != nil {
		return nil, env.err
	}

	level, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		return nil, err
	}
	if *room == "" {
		return nil, fmt.Errorf("room is required")
	}
	if *encoding != "text" && *encoding != "binary" {
		return nil, fmt.Errorf("unknown encoding: %s", *encoding)
	}
	if *dropInterval <= 0 {
		return nil, fmt.Errorf("drop-interval must be positive")
	}

	return &ClientConfig{
		ServerURL:    *serverURL,
		Room:         *room,
		Username:     *username,
		Encoding:     *encoding,
		LogLevel:     level,
		DropInterval: *dropInterval,
		Duration:     *duration,
		Seed:         *seed,
	}, nil
}

// envReader keeps the first malformed variable it sees.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) lookup(key string) string {
	if e.getenv == nil {
		return ""
	}
	return strings.TrimSpace(e.getenv(EnvPrefix + key))
}

func (e *envReader) string(key, def string) string {
	if v := e.lookup(key); v != "" {
		return v
	}
	return def
}

func (e *envReader) int(key string, def int) int {
	v := e.lookup(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *envReader) int64(key string, def int64) int64 {
	v := e.lookup(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := e.lookup(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return d
}

func (e *envReader) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s%s: %v", EnvPrefix, key, err)
	}
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
