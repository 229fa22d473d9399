package snapname

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name      string
		groupName string
		want      string
	}{
		{
			name:      "simple lowercase name",
			groupName: "billing",
			want:      "sf_billing",
		},
		{
			name:      "mixed case is lowered",
			groupName: "Billing",
			want:      "sf_billing",
		},
		{
			name:      "spaces collapse to underscore",
			groupName: "Order  Processing",
			want:      "sf_order_processing",
		},
		{
			name:      "special characters collapse",
			groupName: "crm (prod) #1",
			want:      "sf_crm_prod_1",
		},
		{
			name:      "leading and trailing junk trimmed",
			groupName: "--staging--",
			want:      "sf_staging",
		},
		{
			name:      "empty name keeps bare prefix",
			groupName: "",
			want:      "sf",
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Normalize(tc.groupName))
		})
	}
}

func TestSnapshotID(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	t.Run("deterministic for fixed inputs", func(t *testing.T) {
		t.Parallel()

		a := SnapshotID("Billing", "before upgrade", now)
		b := SnapshotID("Billing", "before upgrade", now)
		assert.Equal(t, a, b)
		assert.True(t, MatchesConvention(a))
		// 前缀 + 规范化分组名 + 下划线 + 8 位摘要
		assert.Regexp(t, `^sf_billing_[0-9a-f]{8}$`, a)
	})

	t.Run("label changes the hash", func(t *testing.T) {
		t.Parallel()

		a := SnapshotID("Billing", "before upgrade", now)
		b := SnapshotID("Billing", "after upgrade", now)
		assert.NotEqual(t, a, b)
	})

	t.Run("timestamp changes the hash", func(t *testing.T) {
		t.Parallel()

		a := SnapshotID("Billing", "before upgrade", now)
		b := SnapshotID("Billing", "before upgrade", now.Add(time.Second))
		assert.NotEqual(t, a, b)
	})
}

func TestArtifactName(t *testing.T) {
	t.Parallel()

	id := SnapshotID("crm", "nightly", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	artifact := ArtifactName(id, "orders")

	assert.Equal(t, id+"_orders", artifact)
	assert.True(t, MatchesConvention(artifact))
	assert.True(t, BelongsTo(artifact, id))
	assert.False(t, BelongsTo(artifact, "sf_other_12345678"))
}

func TestPhysicalFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "sf_crm_ab12cd34_orders_orders_data.ss",
		PhysicalFileName("sf_crm_ab12cd34_orders", "orders_data"))
}

func TestPhysicalFilePath(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name        string
		snapshotDir string
		want        string
	}{
		{
			name:        "unix style directory",
			snapshotDir: "/var/opt/mssql/snapshots",
			want:        "/var/opt/mssql/snapshots/sf_a_11111111_db_data.ss",
		},
		{
			name:        "unix style with trailing slash",
			snapshotDir: "/var/opt/mssql/snapshots/",
			want:        "/var/opt/mssql/snapshots/sf_a_11111111_db_data.ss",
		},
		{
			name:        "windows style directory",
			snapshotDir: `D:\Snapshots`,
			want:        `D:\Snapshots\sf_a_11111111_db_data.ss`,
		},
		{
			name:        "windows style with trailing backslash",
			snapshotDir: `D:\Snapshots\`,
			want:        `D:\Snapshots\sf_a_11111111_db_data.ss`,
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, PhysicalFilePath(tc.snapshotDir, "sf_a_11111111_db", "data"))
		})
	}
}

func TestMatchesConvention(t *testing.T) {
	t.Parallel()

	assert.True(t, MatchesConvention("sf_billing_12ab34cd_orders"))
	assert.False(t, MatchesConvention("nightly_backup_orders"))
	// 大写前缀不算：引擎侧名称由本系统生成，总是小写前缀
	assert.False(t, MatchesConvention("SF_billing_12ab34cd_orders"))
}

func TestIsSnapshotFile(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSnapshotFile("sf_billing_12ab34cd_orders_orders_data.ss"))
	assert.False(t, IsSnapshotFile("orders.mdf"))
	assert.False(t, IsSnapshotFile("sf_billing_12ab34cd_orders.bak"))
	assert.False(t, IsSnapshotFile("backup_orders.ss"))
}
