package database

import (
	"context"
	"fmt"
	"go-gin-event-tickets/config"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func InitDatabase(config *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(DSN(config))
	if err != nil {
		return nil, err
	}

	// 設置連接池參數
	poolConfig.MaxConns = config.MaxConns
	poolConfig.MinConns = config.MinConns
	if poolConfig.MaxConns <= 0 {
		poolConfig.MaxConns = 25
	}
	if poolConfig.MinConns < 0 || poolConfig.MinConns > poolConfig.MaxConns {
		poolConfig.MinConns = 0
	}
	poolConfig.MaxConnLifetime = time.Hour         // 連接最大生命週期
	poolConfig.MaxConnIdleTime = time.Minute * 30  // 最大閒置時間

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}

	err = pool.Ping(context.Background())
	if err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// DSN renders the keyword/value connection string pgx expects.
func DSN(config *config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s timezone=%s",
		config.Host,
		config.Port,
		config.User,
		config.Password,
		config.DBName,
		config.SSLMode,
		"UTC",
	)
}
