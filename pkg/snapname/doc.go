// Package snapname 集中管理快照命名约定
//
// 快照创建与回滚通过字符串约定耦合：创建时按约定派生引擎侧快照库名，
// 回滚时按同一约定识别需要清理的兄弟快照。该约定只在本包中实现一次，
// 调用方不得在各处重新拼接。
//
// 命名规则：
//   - 快照 ID: sf_{规范化分组名}_{hash8(标签+创建时间)}
//   - 快照库名: {快照 ID}_{源数据库名}
//   - 稀疏文件名: {快照库名}_{逻辑文件名}.ss
//
// 示例：
//
//	id := snapname.SnapshotID("Billing", "before upgrade", time.Now())
//	// id: "sf_billing_3fa4c9d2"
//	artifact := snapname.ArtifactName(id, "orders")
//	// artifact: "sf_billing_3fa4c9d2_orders"
//	snapname.MatchesConvention(artifact)
//	// true
package snapname
