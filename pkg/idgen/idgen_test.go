package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	gen := New()
	assert.NotNil(t, gen)
	assert.NotNil(t, gen.sf)
}

func TestGenerateGroupID(t *testing.T) {
	t.Parallel()

	gen := New()

	testcases := []struct {
		name    string
		wantErr bool
		check   func(t *testing.T, id string)
	}{
		{
			name:    "generate group ID",
			wantErr: false,
			check: func(t *testing.T, id string) {
				assert.NotEmpty(t, id)
				assert.Contains(t, id, "grp-")
			},
		},
		{
			name:    "generate multiple IDs are unique",
			wantErr: false,
			check: func(t *testing.T, id string) {
				// 生成多个 ID，确保它们是唯一的
				ids := make(map[string]bool)
				for i := 0; i < 100; i++ {
					newID, err := gen.GenerateGroupID()
					require.NoError(t, err)
					assert.False(t, ids[newID], "ID should be unique: %s", newID)
					ids[newID] = true
				}
			},
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			id, err := gen.GenerateGroupID()

			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				if tc.check != nil {
					tc.check(t, id)
				}
			}
		})
	}
}

func TestGenerateProfileID(t *testing.T) {
	t.Parallel()

	gen := New()

	id, err := gen.GenerateProfileID()
	assert.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Contains(t, id, "prof-")
}

func TestGenerateHistoryID(t *testing.T) {
	t.Parallel()

	gen := New()

	id, err := gen.GenerateHistoryID()
	assert.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Contains(t, id, "hist-")
}

func TestGenerateRequestID(t *testing.T) {
	t.Parallel()

	gen := New()

	id, err := gen.GenerateRequestID()
	assert.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Contains(t, id, "req-")
}

func TestDefaultGenerator(t *testing.T) {
	t.Parallel()

	// 默认生成器是单例
	a := DefaultGenerator()
	b := DefaultGenerator()
	assert.Same(t, a, b)

	id, err := GenerateHistoryID()
	assert.NoError(t, err)
	assert.Contains(t, id, "hist-")
}
