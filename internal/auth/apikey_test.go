// Package auth provides unit tests for API key utilities: key
// generation, validation, hashing, and format checking with various
// edge cases.
package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKey(t *testing.T) {
	tests := []struct {
		name        string
		keyName     string
		role        string
		expectError bool
		errorMsg    string
	}{
		{
			name:    "valid_name",
			keyName: "Test API Key",
			role:    RoleOperator,
		},
		{
			name:    "single_character_name",
			keyName: "A",
			role:    RoleReadonly,
		},
		{
			name:    "long_valid_name",
			keyName: strings.Repeat("A", 255),
			role:    RoleAdmin,
		},
		{
			name:    "empty_role_defaults_to_readonly",
			keyName: "Defaulted",
			role:    "",
		},
		{
			name:        "empty_name",
			keyName:     "",
			role:        RoleReadonly,
			expectError: true,
			errorMsg:    "key name cannot be empty",
		},
		{
			name:        "too_long_name",
			keyName:     strings.Repeat("A", 256),
			role:        RoleReadonly,
			expectError: true,
			errorMsg:    "key name must be at most 255 characters",
		},
		{
			name:        "name_with_control_chars",
			keyName:     "Test\x00Key",
			role:        RoleReadonly,
			expectError: true,
			errorMsg:    "key name contains invalid characters",
		},
		{
			name:    "name_with_unicode",
			keyName: "Test Key 🔑",
			role:    RoleReadonly,
		},
		{
			name:        "unknown_role",
			keyName:     "Bad Role",
			role:        "superuser",
			expectError: true,
			errorMsg:    "invalid role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generatedKey, err := GenerateAPIKey(tt.keyName, tt.role)

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, generatedKey)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, generatedKey)

				// Verify key structure
				assert.Equal(t, tt.keyName, generatedKey.KeyInfo.Name)
				assert.True(t, strings.HasPrefix(generatedKey.Key, "nsk_"))
				assert.True(t, len(generatedKey.Key) >= 35) // nsk_ + 32 chars minimum
				assert.True(t, len(generatedKey.Key) <= 45) // reasonable upper bound
				assert.True(t, strings.HasPrefix(generatedKey.KeyPrefix, "nsk_"))
				assert.True(t, strings.HasSuffix(generatedKey.KeyPrefix, "..."))

				// Verify metadata defaults
				assert.NotEmpty(t, generatedKey.KeyInfo.ID)
				assert.Equal(t, NormalizeRole(tt.role), generatedKey.KeyInfo.Role)
				assert.Equal(t, 0, generatedKey.KeyInfo.UsageCount)
				assert.Nil(t, generatedKey.KeyInfo.LastUsedAt)
				assert.False(t, generatedKey.KeyInfo.CreatedAt.IsZero())
			}
		})
	}
}

func TestGenerateAPIKey_Uniqueness(t *testing.T) {
	const numKeys = 1000
	keys := make(map[string]bool)

	for i := 0; i < numKeys; i++ {
		generatedKey, err := GenerateAPIKey("Test Key", RoleReadonly)
		require.NoError(t, err)

		// Ensure no duplicates
		assert.False(t, keys[generatedKey.Key], "Generated duplicate key: %s", generatedKey.Key)
		keys[generatedKey.Key] = true

		// Ensure valid format
		assert.True(t, IsValidAPIKeyFormat(generatedKey.Key))
	}
}

func TestHashAPIKey(t *testing.T) {
	tests := []struct {
		name        string
		apiKey      string
		expectError bool
	}{
		{
			name:   "valid_key",
			apiKey: "nsk_abc123def456ghi789",
		},
		{
			name:        "empty_key",
			apiKey:      "",
			expectError: true,
		},
		{
			name:   "long_key",
			apiKey: strings.Repeat("a", 1000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashAPIKey(tt.apiKey)

			if tt.expectError {
				assert.Error(t, err)
				assert.Empty(t, hash)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, hash)
				assert.True(t, strings.HasPrefix(hash, "$2a$12$"))

				// Verify hash works with ValidateAPIKey
				isValid := ValidateAPIKey(tt.apiKey, hash)
				assert.True(t, isValid)
			}
		})
	}
}

func TestValidateAPIKey(t *testing.T) {
	validKey := "nsk_test_key_123"
	validHash, err := HashAPIKey(validKey)
	require.NoError(t, err)

	tests := []struct {
		name     string
		apiKey   string
		hash     string
		expected bool
	}{
		{
			name:     "valid_key_and_hash",
			apiKey:   validKey,
			hash:     validHash,
			expected: true,
		},
		{
			name:     "invalid_key_valid_hash",
			apiKey:   "nsk_wrong_key_123",
			hash:     validHash,
			expected: false,
		},
		{
			name:     "valid_key_invalid_hash",
			apiKey:   validKey,
			hash:     "invalid_hash",
			expected: false,
		},
		{
			name:     "empty_key",
			apiKey:   "",
			hash:     validHash,
			expected: false,
		},
		{
			name:     "empty_hash",
			apiKey:   validKey,
			hash:     "",
			expected: false,
		},
		{
			name:     "both_empty",
			apiKey:   "",
			hash:     "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateAPIKey(tt.apiKey, tt.hash)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsValidAPIKeyFormat(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   string
		expected bool
	}{
		{
			name:     "valid_format",
			apiKey:   "nsk_abc123def456ghi789jkl012mno345",
			expected: true,
		},
		{
			name:     "valid_short_format",
			apiKey:   "nsk_abc123def456",
			expected: true,
		},
		{
			name:     "empty_key",
			apiKey:   "",
			expected: false,
		},
		{
			name:     "missing_prefix",
			apiKey:   "abc123def456ghi789",
			expected: false,
		},
		{
			name:     "wrong_prefix",
			apiKey:   "sk_abc123def456ghi789",
			expected: false,
		},
		{
			name:     "missing_underscore",
			apiKey:   "nskabc123def456ghi789",
			expected: false,
		},
		{
			name:     "too_short",
			apiKey:   "nsk_abc",
			expected: false,
		},
		{
			name:     "too_long",
			apiKey:   "nsk_" + strings.Repeat("a", 100),
			expected: false,
		},
		{
			name:     "invalid_characters",
			apiKey:   "nsk_abc123@def456#ghi789",
			expected: false,
		},
		{
			name:     "spaces_in_key",
			apiKey:   "nsk_abc123 def456 ghi789",
			expected: false,
		},
		{
			name:     "uppercase_letters",
			apiKey:   "nsk_ABC123DEF456GHI789",
			expected: true,
		},
		{
			name:     "mixed_case",
			apiKey:   "nsk_AbC123dEf456GhI789",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidAPIKeyFormat(tt.apiKey)
			assert.Equal(t, tt.expected, result, "Key: %s", tt.apiKey)
		})
	}
}

func TestCreateDisplayPrefix(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   string
		expected string
	}{
		{
			name:     "valid_key",
			apiKey:   "nsk_abcdefghijklmnopqrstuvwxyz123456",
			expected: "nsk_abcdefgh...",
		},
		{
			name:     "short_key",
			apiKey:   "nsk_abc123",
			expected: "invalid_key",
		},
		{
			name:     "invalid_format",
			apiKey:   "invalid_key_format",
			expected: "invalid_key",
		},
		{
			name:     "empty_key",
			apiKey:   "",
			expected: "invalid_key",
		},
		{
			name:     "missing_underscore",
			apiKey:   "nskabcdefgh",
			expected: "invalid_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CreateDisplayPrefix(tt.apiKey)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestAPIKeyInfo_Allows(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		action   string
		expected bool
	}{
		{
			name:     "admin_can_admin",
			role:     RoleAdmin,
			action:   PermissionAdmin,
			expected: true,
		},
		{
			name:     "operator_can_write",
			role:     RoleOperator,
			action:   PermissionWrite,
			expected: true,
		},
		{
			name:     "operator_cannot_admin",
			role:     RoleOperator,
			action:   PermissionAdmin,
			expected: false,
		},
		{
			name:     "readonly_can_read",
			role:     RoleReadonly,
			action:   PermissionRead,
			expected: true,
		},
		{
			name:     "readonly_cannot_delete",
			role:     RoleReadonly,
			action:   PermissionDelete,
			expected: false,
		},
		{
			name:     "empty_role_reads_only",
			role:     "",
			action:   PermissionRead,
			expected: true,
		},
		{
			name:     "empty_role_cannot_write",
			role:     "",
			action:   PermissionWrite,
			expected: false,
		},
		{
			name:     "unknown_role_denied",
			role:     "superuser",
			action:   PermissionRead,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &APIKeyInfo{Role: tt.role}
			assert.Equal(t, tt.expected, info.Allows(tt.action))
		})
	}
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleReadonly, NormalizeRole(""))
	assert.Equal(t, RoleAdmin, NormalizeRole(RoleAdmin))
	assert.Equal(t, "bogus", NormalizeRole("bogus"))
}

func TestValidRole(t *testing.T) {
	for _, role := range Roles() {
		assert.True(t, ValidRole(role), "role %s should be valid", role)
	}
	assert.True(t, ValidRole(""))
	assert.False(t, ValidRole("superuser"))
	assert.False(t, ValidRole("Admin"))
}
