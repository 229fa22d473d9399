package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"
)

type client struct {
	db *sql.DB
}

// DefaultConnector 通过 go-mssqldb 建立真实连接
type DefaultConnector struct{}

var _ Connector = DefaultConnector{}

// Connect 建立连接并验证可达，失败时不泄漏连接
func (DefaultConnector) Connect(ctx context.Context, cfg *Config) (Client, error) {
	port := cfg.Port
	if port == 0 {
		port = 1433
	}

	query := url.Values{}
	query.Set("app name", "sqlsnap")
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, port),
		RawQuery: query.Encode(),
	}

	db, err := sql.Open("sqlserver", u.String())
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}

	// 编排操作串行执行，小连接池足够
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlserver %s:%d: %w", cfg.Host, port, err)
	}
	return &client{db: db}, nil
}

// NewWithDB 用已有的 *sql.DB 构造客户端，测试时配合 sqlmock 使用
func NewWithDB(db *sql.DB) Client {
	return &client{db: db}
}

func (c *client) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlserver: %w", err)
	}
	return nil
}

func (c *client) Close() error {
	return c.db.Close()
}

// QuoteIdent 将标识符包装为 [name]，内部的 ] 翻倍
//
//	QuoteIdent("my]db") → "[my]]db]"
func QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// EscapeLiteral 将字符串字面量中的单引号翻倍
// 结果需要放在单引号内使用
func EscapeLiteral(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
