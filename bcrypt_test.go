package ayurcare_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/svasthya/ayurcare"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true, // bcrypt can hash empty strings!
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := ayurcare.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)

			err = ayurcare.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "testPassword123!"
	hash, err := ayurcare.HashPassword(password)
	assert.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  error
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
			wantErr:  nil,
		},
		{
			name:     "Wrong password",
			password: "notThePassword",
			hash:     hash,
			wantErr:  ayurcare.ErrMismatchedHashAndPassword,
		},
		{
			name:     "Corrupt hash",
			password: password,
			hash:     "not-a-bcrypt-hash",
			wantErr:  ayurcare.ErrCorruptCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ayurcare.ComparePasswordAndHash(tt.password, tt.hash)

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr.Error())
		})
	}
}
