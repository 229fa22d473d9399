// Package service 提供快照编排的业务逻辑层实现
package service

import (
	"encoding/json"

	"github.com/jinzhu/copier"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository/model"
)

// groupModelToEntity 将 model.Group 转换为 entity.Group
func groupModelToEntity(m *model.Group) (*entity.Group, error) {
	e := &entity.Group{}
	if err := copier.Copy(e, m); err != nil {
		return nil, err
	}

	// 数据库列表在表里是 JSON 文本，手动解码
	e.Databases = nil
	if m.Databases != "" {
		if err := json.Unmarshal([]byte(m.Databases), &e.Databases); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// groupEntityToModel 将 entity.Group 转换为 model.Group
func groupEntityToModel(e *entity.Group) (*model.Group, error) {
	m := &model.Group{}
	if err := copier.Copy(m, e); err != nil {
		return nil, err
	}

	databases, err := json.Marshal(e.Databases)
	if err != nil {
		return nil, err
	}
	m.Databases = string(databases)

	return m, nil
}

// snapshotModelToEntity 将 model.Snapshot 及其逐库结果转换为 entity.Snapshot
func snapshotModelToEntity(m *model.Snapshot, databases []*model.DatabaseSnapshot) (*entity.Snapshot, error) {
	e := &entity.Snapshot{}
	if err := copier.Copy(e, m); err != nil {
		return nil, err
	}

	e.Databases = make([]entity.DatabaseSnapshot, 0, len(databases))
	for _, d := range databases {
		de, err := databaseSnapshotModelToEntity(d)
		if err != nil {
			return nil, err
		}
		e.Databases = append(e.Databases, *de)
	}

	return e, nil
}

// databaseSnapshotModelToEntity 将 model.DatabaseSnapshot 转换为 entity.DatabaseSnapshot
func databaseSnapshotModelToEntity(m *model.DatabaseSnapshot) (*entity.DatabaseSnapshot, error) {
	e := &entity.DatabaseSnapshot{
		Database:     m.Database,
		ArtifactName: m.ArtifactName,
		Success:      m.Success,
		Error:        m.Error,
	}

	if m.Files != "" {
		if err := json.Unmarshal([]byte(m.Files), &e.Files); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// databaseSnapshotEntityToModel 将 entity.DatabaseSnapshot 转换为 model.DatabaseSnapshot
// position 是数据库在分组内的顺序
func databaseSnapshotEntityToModel(e *entity.DatabaseSnapshot, position int) (*model.DatabaseSnapshot, error) {
	m := &model.DatabaseSnapshot{
		Position:     position,
		Database:     e.Database,
		ArtifactName: e.ArtifactName,
		Success:      e.Success,
		Error:        e.Error,
	}

	if len(e.Files) > 0 {
		files, err := json.Marshal(e.Files)
		if err != nil {
			return nil, err
		}
		m.Files = string(files)
	}

	return m, nil
}

// profileModelToEntity 将 model.Profile 转换为 entity.Profile
// 密码不转换，任何响应都不携带
func profileModelToEntity(m *model.Profile) (*entity.Profile, error) {
	e := &entity.Profile{}
	if err := copier.Copy(e, m); err != nil {
		return nil, err
	}
	return e, nil
}

// historyModelToEntity 将 model.HistoryEntry 转换为 entity.HistoryEntry
func historyModelToEntity(m *model.HistoryEntry) (*entity.HistoryEntry, error) {
	e := &entity.HistoryEntry{}
	if err := copier.Copy(e, m); err != nil {
		return nil, err
	}

	// Details 在表里是 JSON 文本，解码为通用结构
	e.Details = nil
	if m.Details != "" {
		var details any
		if err := json.Unmarshal([]byte(m.Details), &details); err != nil {
			return nil, err
		}
		e.Details = details
	}

	return e, nil
}

// settingsModelToEntity 将 model.Settings 转换为 entity.Settings
// 文件服务密码不转换
func settingsModelToEntity(m *model.Settings) *entity.Settings {
	return &entity.Settings{
		AutoCheckpoint:    m.AutoCheckpoint,
		MaxHistoryEntries: m.MaxHistoryEntries,
		FileAPIURL:        m.FileAPIURL,
		FileAPIUsername:   m.FileAPIUsername,
	}
}
