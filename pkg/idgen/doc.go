// Package idgen 提供递增 ID 生成器
//
// 使用 Sonyflake 算法生成全局唯一且递增的 ID。
// Sonyflake 是 Snowflake 算法的改进版本，生成的 ID 具有以下特性：
//   - 全局唯一
//   - 时间有序（递增）
//   - 64 位整数
//   - 分布式友好
//
// 生成的 ID 格式：
//   - 分组 ID: grp-{递增数字}
//   - 连接配置 ID: prof-{递增数字}
//   - 历史记录 ID: hist-{递增数字}
//   - 请求 ID: req-{递增数字}
//
// 注意：快照 ID 不由本包生成，它按命名约定由分组名和内容摘要派生，
// 参见 pkg/snapname。
//
// 使用方式：
//
// 方式一：使用包级别的便捷函数（推荐，使用默认生成器）
//
//	groupID, err := idgen.GenerateGroupID()
//	// groupID: "grp-1234567890"
//
// 方式二：创建自定义生成器
//
//	gen := idgen.New()
//	profileID, err := gen.GenerateProfileID()
package idgen
