package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCacheKey(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		objectType  string
		identifier  string
		paramsKey   []string
		expectedKey string
	}{
		{
			name:        "without paramsKey",
			serviceName: "session",
			objectType:  "state",
			identifier:  "01HZX",
			expectedKey: "quizengine:session:state:01HZX",
		},
		{
			name:        "with empty paramsKey",
			serviceName: "session",
			objectType:  "state",
			identifier:  "01HZX",
			paramsKey:   []string{},
			expectedKey: "quizengine:session:state:01HZX",
		},
		{
			name:        "with multiple paramsKey",
			serviceName: "catalog",
			objectType:  "topics",
			identifier:  "math",
			paramsKey:   []string{"recovery", "v2"},
			expectedKey: "quizengine:catalog:topics:math:recovery_v2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedKey, GenerateCacheKey(tt.serviceName, tt.objectType, tt.identifier, tt.paramsKey...))
		})
	}
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "quizengine:session:state:abc", SessionKey("abc"))
}
