package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	tests := []struct {
		name        string
		records     []KeyRecord
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid_records",
			records: []KeyRecord{
				{Name: "ci", Hash: "$2a$12$fakefakefakefakefakefake", Role: RoleAdmin},
				{Name: "grafana", Hash: "$2a$12$otherfakefakefakefakefak", Role: ""},
			},
		},
		{
			name:    "empty_store",
			records: nil,
		},
		{
			name: "empty_name",
			records: []KeyRecord{
				{Name: "", Hash: "$2a$12$fake", Role: RoleAdmin},
			},
			expectError: true,
			errorMsg:    "invalid key name",
		},
		{
			name: "duplicate_name",
			records: []KeyRecord{
				{Name: "ci", Hash: "$2a$12$fake", Role: RoleAdmin},
				{Name: "ci", Hash: "$2a$12$fake2", Role: RoleReadonly},
			},
			expectError: true,
			errorMsg:    "duplicate key name",
		},
		{
			name: "missing_hash",
			records: []KeyRecord{
				{Name: "ci", Role: RoleAdmin},
			},
			expectError: true,
			errorMsg:    "has no hash",
		},
		{
			name: "unknown_role",
			records: []KeyRecord{
				{Name: "ci", Hash: "$2a$12$fake", Role: "superuser"},
			},
			expectError: true,
			errorMsg:    "unknown role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.records)

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, store)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, store)
				assert.Equal(t, len(tt.records), store.Count())
			}
		})
	}
}

func TestStoreAuthenticate(t *testing.T) {
	admin, err := GenerateAPIKey("admin key", RoleAdmin)
	require.NoError(t, err)
	reader, err := GenerateAPIKey("reader key", "")
	require.NoError(t, err)

	adminHash, err := HashAPIKey(admin.Key)
	require.NoError(t, err)
	readerHash, err := HashAPIKey(reader.Key)
	require.NoError(t, err)

	store, err := NewStore([]KeyRecord{
		{Name: "admin key", Hash: adminHash, Role: RoleAdmin},
		{Name: "reader key", Hash: readerHash},
	})
	require.NoError(t, err)

	t.Run("matching_key", func(t *testing.T) {
		info, ok := store.Authenticate(admin.Key)
		require.True(t, ok)
		assert.Equal(t, "admin key", info.Name)
		assert.Equal(t, RoleAdmin, info.Role)
		assert.True(t, info.Allows(PermissionAdmin))
		assert.Equal(t, 1, info.UsageCount)
		assert.NotNil(t, info.LastUsedAt)
	})

	t.Run("empty_role_defaults_to_readonly", func(t *testing.T) {
		info, ok := store.Authenticate(reader.Key)
		require.True(t, ok)
		assert.Equal(t, RoleReadonly, info.Role)
		assert.True(t, info.Allows(PermissionRead))
		assert.False(t, info.Allows(PermissionWrite))
	})

	t.Run("usage_count_accumulates", func(t *testing.T) {
		first, ok := store.Authenticate(admin.Key)
		require.True(t, ok)
		second, ok := store.Authenticate(admin.Key)
		require.True(t, ok)
		assert.Equal(t, first.UsageCount+1, second.UsageCount)
	})

	t.Run("unknown_key_rejected", func(t *testing.T) {
		_, ok := store.Authenticate("nsk_abcdefghijklmnopqrstuvwxyz012345")
		assert.False(t, ok)
	})

	t.Run("malformed_key_rejected", func(t *testing.T) {
		_, ok := store.Authenticate("not an api key")
		assert.False(t, ok)
	})
}

func TestStoreKeys(t *testing.T) {
	store, err := NewStore([]KeyRecord{
		{Name: "first", Hash: "$2a$12$fakefakefakefakefakefake", Role: RoleOperator},
		{Name: "second", Hash: "$2a$12$otherfakefakefakefakefak", Role: RoleReadonly},
	})
	require.NoError(t, err)

	keys := store.Keys()
	require.Len(t, keys, 2)
	assert.Equal(t, "first", keys[0].Name)
	assert.Equal(t, RoleOperator, keys[0].Role)
	assert.Equal(t, "second", keys[1].Name)
	assert.NotEmpty(t, keys[0].ID)
	assert.NotEqual(t, keys[0].ID, keys[1].ID)
}
