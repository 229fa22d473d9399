package mssql

import (
	"context"
	"database/sql"
	"fmt"
)

func (c *client) DatabaseExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sys.databases WHERE name = @name",
		sql.Named("name", name),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query sys.databases for %s: %w", name, err)
	}
	return count > 0, nil
}

// ListDataFiles 列出数据库的数据文件
// type = 0 只取数据文件，日志文件不参与快照
func (c *client) ListDataFiles(ctx context.Context, database string) ([]DataFile, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT name, physical_name FROM sys.master_files WHERE database_id = DB_ID(@database) AND type = 0 ORDER BY file_id",
		sql.Named("database", database),
	)
	if err != nil {
		return nil, fmt.Errorf("list data files of %s: %w", database, err)
	}
	defer rows.Close()

	var files []DataFile
	for rows.Next() {
		var f DataFile
		if err := rows.Scan(&f.LogicalName, &f.PhysicalPath); err != nil {
			return nil, fmt.Errorf("scan data file of %s: %w", database, err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate data files of %s: %w", database, err)
	}
	return files, nil
}

// ListPhysicalFiles 列出数据库（含快照库）的所有物理文件路径
func (c *client) ListPhysicalFiles(ctx context.Context, database string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT physical_name FROM sys.master_files WHERE database_id = DB_ID(@database) ORDER BY file_id",
		sql.Named("database", database),
	)
	if err != nil {
		return nil, fmt.Errorf("list physical files of %s: %w", database, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan physical file of %s: %w", database, err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate physical files of %s: %w", database, err)
	}
	return paths, nil
}

func (c *client) DropDatabase(ctx context.Context, name string) error {
	if _, err := c.db.ExecContext(ctx, "DROP DATABASE "+QuoteIdent(name)); err != nil {
		return fmt.Errorf("drop database %s: %w", name, err)
	}
	return nil
}

// SetSingleUser 切换到单用户模式并立即回滚其他会话的事务
// 回滚前必须执行，否则活跃连接会阻塞 RESTORE
func (c *client) SetSingleUser(ctx context.Context, name string) error {
	stmt := "ALTER DATABASE " + QuoteIdent(name) + " SET SINGLE_USER WITH ROLLBACK IMMEDIATE"
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("set single user on %s: %w", name, err)
	}
	return nil
}

func (c *client) SetMultiUser(ctx context.Context, name string) error {
	stmt := "ALTER DATABASE " + QuoteIdent(name) + " SET MULTI_USER"
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("set multi user on %s: %w", name, err)
	}
	return nil
}
