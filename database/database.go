package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bitterlily/codeboard/schema"
)

type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Dbname   string
	Sslmode  string
	Path     string
}

type ErrorType int

const (
	InsertError ErrorType = iota
	ConflictError
	OpenError
	ConfigError
	MigrateError
	UpdateError
	QueryError
)

type DatabaseError struct {
	ErrorType ErrorType
	msg       error
}

func newMigrateError(err error) *DatabaseError {
	if err == nil {
		return nil
	}
	return &DatabaseError{
		ErrorType: MigrateError,
		msg:       fmt.Errorf("database migrate error: %w", err),
	}
}

func newConflictError(err error) *DatabaseError {
	if err == nil {
		return nil
	}
	return &DatabaseError{
		ErrorType: ConflictError,
		msg:       fmt.Errorf("database create error: %w", err),
	}
}

func newOpenError(err error) *DatabaseError {
	if err == nil {
		return nil
	}
	return &DatabaseError{
		ErrorType: OpenError,
		msg:       fmt.Errorf("database open error: %w", err),
	}
}

func newInsertError(err error) *DatabaseError {
	if err == nil {
		return nil
	}
	return &DatabaseError{
		ErrorType: InsertError,
		msg:       fmt.Errorf("database insert error: %w", err),
	}
}

func newConfigError(err error) *DatabaseError {
	if err == nil {
		return nil
	}
	return &DatabaseError{
		ErrorType: ConfigError,
		msg:       fmt.Errorf("database config error: %w", err),
	}
}

func newUpdateError(err error) *DatabaseError {
	if err == nil {
		return nil
	}
	return &DatabaseError{
		ErrorType: UpdateError,
		msg:       fmt.Errorf("database update error: %w", err),
	}
}

func newQueryError(err error) *DatabaseError {
	if err == nil {
		return nil
	}
	return &DatabaseError{
		ErrorType: QueryError,
		msg:       fmt.Errorf("database query error: %w", err),
	}
}

func (e *DatabaseError) Error() string {
	return e.msg.Error()
}

func (e *DatabaseError) Unwrap() error {
	return e.msg
}

func (c Config) String() string {
	return fmt.Sprintf("host=%s port=%d user=%s "+
		"password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Dbname, c.Sslmode)
}

func Open(c Config) (*gorm.DB, *DatabaseError) {
	switch c.Driver {
	case "postgres":
		db, err := gorm.Open(postgres.Open(c.String()), &gorm.Config{})
		if err != nil {
			return nil, newOpenError(err)
		}
		return db, nil
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(c.Path), &gorm.Config{})
		if err != nil {
			return nil, newOpenError(err)
		}
		return db, nil
	default:
		return nil, newConfigError(fmt.Errorf("unknown database driver %q", c.Driver))
	}
}

func Automigrate(db *gorm.DB) *DatabaseError {
	if err := db.AutoMigrate(&schema.User{}); err != nil {
		return newMigrateError(fmt.Errorf("schema user, %w", err))
	}
	if err := db.AutoMigrate(&schema.Tag{}); err != nil {
		return newMigrateError(fmt.Errorf("schema tag, %w", err))
	}
	if err := db.AutoMigrate(&schema.Phrase{}); err != nil {
		return newMigrateError(fmt.Errorf("schema phrase, %w", err))
	}
	if err := db.AutoMigrate(&schema.Session{}); err != nil {
		return newMigrateError(fmt.Errorf("schema session, %w", err))
	}
	if err := db.AutoMigrate(&schema.Game{}); err != nil {
		return newMigrateError(fmt.Errorf("schema game, %w", err))
	}
	if err := db.AutoMigrate(&schema.GameCard{}); err != nil {
		return newMigrateError(fmt.Errorf("schema game card, %w", err))
	}
	if err := db.AutoMigrate(&schema.Selection{}); err != nil {
		return newMigrateError(fmt.Errorf("schema selection, %w", err))
	}
	return nil
}
