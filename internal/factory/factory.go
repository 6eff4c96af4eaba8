package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/pmorrell/surveyid/internal/dependencies/clock"
	"github.com/pmorrell/surveyid/internal/dependencies/random"
	"github.com/pmorrell/surveyid/internal/mail"
	"github.com/pmorrell/surveyid/internal/services/account"
	"github.com/pmorrell/surveyid/internal/services/anonymizer"
	"github.com/pmorrell/surveyid/internal/services/credential"
	"github.com/pmorrell/surveyid/internal/services/session"
	"github.com/pmorrell/surveyid/internal/storage"
	"github.com/pmorrell/surveyid/internal/storage/memory"
	redisstorage "github.com/pmorrell/surveyid/internal/storage/redis"
	sqlitestorage "github.com/pmorrell/surveyid/internal/storage/sqlite"
	"github.com/pmorrell/surveyid/internal/validate"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Mail   account.MailDispatcher

	// Services
	CredentialService *credential.Service
	Anonymizer        *anonymizer.Service
	SessionManager    *session.Manager
	AccountService    *account.Service
}

// Config holds configuration for the application factory
type Config struct {
	// AccountConfig holds settings for the account flow (optional)
	AccountConfig account.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or
	// "sqlite"); defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if
	// StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file path (required if StorageType is
	// "sqlite")
	SQLitePath string
	// Mail overrides the mail dispatcher (optional; defaults to the
	// log-only dispatcher)
	Mail account.MailDispatcher
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlitestorage.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}

	dispatcher := cfg.Mail
	if dispatcher == nil {
		dispatcher = mail.NewLogDispatcher(logger)
	}

	return newWithDependencies(store, clock.New(), random.New(), dispatcher, cfg.AccountConfig, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Store, clk clock.Clock, rnd random.Random,
	dispatcher account.MailDispatcher, accountCfg account.Config, logger *slog.Logger) *App {
	creds := credential.New(store, rnd, clk)
	anon := anonymizer.New(store, rnd, clk, logger)
	sessions := session.NewManager(store, clk)
	accounts := account.New(store, creds, anon, validate.New(), dispatcher, clk, accountCfg, logger)

	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		Mail:              dispatcher,
		CredentialService: creds,
		Anonymizer:        anon,
		SessionManager:    sessions,
		AccountService:    accounts,
	}
}
