package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// CreateSnapshot 基于源库创建写时复制快照库
// 每个数据文件对应一个稀疏文件，逻辑名必须与源库一致
func (c *client) CreateSnapshot(ctx context.Context, source, artifact string, files []SnapshotFile) error {
	if len(files) == 0 {
		return fmt.Errorf("create snapshot %s of %s: no data files", artifact, source)
	}

	specs := make([]string, 0, len(files))
	for _, f := range files {
		specs = append(specs, fmt.Sprintf("(NAME = %s, FILENAME = N'%s')",
			QuoteIdent(f.LogicalName), EscapeLiteral(f.Path)))
	}
	stmt := fmt.Sprintf("CREATE DATABASE %s ON %s AS SNAPSHOT OF %s",
		QuoteIdent(artifact), strings.Join(specs, ", "), QuoteIdent(source))

	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create snapshot %s of %s: %w", artifact, source, err)
	}
	return nil
}

// ListSnapshotArtifacts 列出引擎侧所有快照库
// source_database_id 非空即为快照库，与元数据是否认识它无关
func (c *client) ListSnapshotArtifacts(ctx context.Context) ([]SnapshotArtifact, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT name, DB_NAME(source_database_id), create_date FROM sys.databases WHERE source_database_id IS NOT NULL ORDER BY create_date",
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshot artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []SnapshotArtifact
	for rows.Next() {
		var a SnapshotArtifact
		var source sql.NullString
		if err := rows.Scan(&a.Name, &source, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot artifact: %w", err)
		}
		a.SourceDatabase = source.String
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot artifacts: %w", err)
	}
	return artifacts, nil
}

// ProbeSnapshot 对快照库做一次最小读取
// 读取失败说明稀疏文件已丢失或损坏，快照不再可用
func (c *client) ProbeSnapshot(ctx context.Context, artifact string) error {
	stmt := fmt.Sprintf("SELECT TOP (1) name FROM %s.sys.tables", QuoteIdent(artifact))
	var name string
	err := c.db.QueryRowContext(ctx, stmt).Scan(&name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("probe snapshot %s: %w", artifact, err)
	}
	return nil
}

// RestoreFromSnapshot 将数据库恢复到快照时间点
// 引擎要求恢复时源库只剩这一个快照，其余快照需先删除
func (c *client) RestoreFromSnapshot(ctx context.Context, database, artifact string) error {
	stmt := fmt.Sprintf("RESTORE DATABASE %s FROM DATABASE_SNAPSHOT = N'%s'",
		QuoteIdent(database), EscapeLiteral(artifact))
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("restore %s from snapshot %s: %w", database, artifact, err)
	}
	return nil
}
