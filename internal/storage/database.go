// internal/storage/database.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

// driverName is the database/sql name registered by modernc.org/sqlite.
const driverName = "sqlite"

var pragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// OpenDatabase opens the SQLite database behind dsn through GORM. dsn may be a
// plain file path or a full "file:" URI; plain paths get the default pragmas.
func OpenDatabase(dsn string, logger *utils.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = utils.GetLogger()
	}

	db, err := gorm.Open(&sqlite.Dialector{DriverName: driverName, DSN: buildDSN(dsn)}, &gorm.Config{
		Logger:  newGormLogger(logger, 200*time.Millisecond),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	// SQLite has a single writer; one connection keeps line numbering serial.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// CloseDatabase closes the connection pool behind db.
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func buildDSN(dsn string) string {
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, "?") {
		return dsn
	}
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	return "file:" + dsn + "?" + strings.Join(params, "&")
}

// gormLogger routes GORM's messages through the application logger.
type gormLogger struct {
	logger        *utils.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(logger *utils.Logger, slow time.Duration) gormlogger.Interface {
	return &gormLogger{logger: logger, level: gormlogger.Warn, slowThreshold: slow}
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		g.logger.Debugf(msg, args...)
	}
}

func (g *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.logger.Warnf(msg, args...)
	}
}

func (g *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		g.logger.Errorf(msg, args...)
	}
}

func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		sql, rows := fc()
		g.logger.Error("sql error", map[string]interface{}{
			"sql": sql, "rows": rows, "elapsed": elapsed.String(), "error": err.Error(),
		})
	case g.slowThreshold > 0 && elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.logger.Warn("slow sql", map[string]interface{}{
			"sql": sql, "rows": rows, "elapsed": elapsed.String(),
		})
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.logger.Debug("sql", map[string]interface{}{"sql": sql, "rows": rows, "elapsed": elapsed.String()})
	}
}
