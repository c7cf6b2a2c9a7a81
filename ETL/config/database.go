package config

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/LilVoxy/support_etl/ETL/utils"
	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// ConnectDatabase устанавливает подключение к базе данных журнала запусков и отчета
func ConnectDatabase(cfg DatabaseConfig, logger *utils.ETLLogger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case "mysql":
		dsn := mysql.NewConfig()
		dsn.User = cfg.User
		dsn.Passwd = cfg.Password
		dsn.Net = "tcp"
		dsn.Addr = cfg.Host + ":" + strconv.Itoa(cfg.Port)
		dsn.DBName = cfg.DBName
		dsn.ParseTime = true

		db, err = sql.Open("mysql", dsn.FormatDSN())
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к базе данных MySQL: %w", err)
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	case "sqlite":
		db, err = sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к базе данных SQLite: %w", err)
		}

		// SQLite допускает одного писателя; для :memory: это еще и одна база на соединение
		db.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("неизвестный драйвер базы данных: %q", cfg.Driver)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось установить соединение с базой данных (%s): %w", cfg.Driver, err)
	}

	logger.Info("Успешное подключение к базе данных (%s)", cfg.Driver)
	return db, nil
}

// CloseDatabase закрывает подключение к базе данных
func CloseDatabase(db *sql.DB, logger *utils.ETLLogger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("Ошибка при закрытии соединения с базой данных: %v", err)
	}
}
