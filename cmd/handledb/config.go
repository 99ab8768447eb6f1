package main

import (
	"encoding/hex"
	"os"

	"github.com/cockroachdb/errors"
	flags "github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/sxwebdev/handledb"
	"github.com/sxwebdev/handledb/native"
)

// config defines the options shared by every command.
type config struct {
	DB      string `short:"d" long:"db" description:"Path of the database"`
	Engine  string `long:"engine" description:"Storage engine" choice:"pebble" choice:"leveldb" default:"pebble"`
	Cache   int    `long:"cache" description:"Cache size in megabytes" default:"16"`
	Handles int    `long:"handles" description:"Maximum number of open files" default:"16"`
	NoSync  bool   `long:"nosync" description:"Do not fsync writes"`
	Hex     bool   `short:"x" long:"hex" description:"Keys and values are hex encoded"`
	Verbose bool   `short:"v" long:"verbose" description:"Log database lifecycle events"`
}

var cfg config

func newParser() *flags.Parser {
	parser := flags.NewParser(&cfg, flags.Default)
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			panic(err)
		}
	}
	return parser
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func installEngine() error {
	if cfg.DB == "" {
		return errors.New("the --db option is required")
	}
	if cfg.Engine == "leveldb" {
		return handledb.Install(native.NewLevelDBEngine())
	}
	return nil
}

// openDB installs the configured engine and opens the database.
func openDB(create bool) (*handledb.DB, error) {
	if err := installEngine(); err != nil {
		return nil, err
	}
	return handledb.Open(cfg.DB, create, false,
		handledb.WithCache(cfg.Cache),
		handledb.WithHandles(cfg.Handles),
		handledb.WithNoSync(cfg.NoSync),
		handledb.WithLogger(handledb.NewZerologLogger(newLogger())),
	)
}

// decode turns a command line argument into bytes.
func decode(arg string) ([]byte, error) {
	if !cfg.Hex {
		return []byte(arg), nil
	}
	b, err := hex.DecodeString(arg)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %q", arg)
	}
	return b, nil
}

// encode formats bytes for output.
func encode(b []byte) string {
	if cfg.Hex {
		return hex.EncodeToString(b)
	}
	return string(b)
}
