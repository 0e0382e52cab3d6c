package corpus

import (
	"strings"
	"testing"
)

func TestCreateTableSQLUsesConfiguredDimension(t *testing.T) {
	tests := []struct {
		name      string
		dimension int
		want      string
	}{
		{"default when unset", 0, "vector(768)"},
		{"standard embedding", 768, "vector(768)"},
		{"large embedding", 1536, "vector(1536)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := createTableSQL(tt.dimension)
			if !strings.Contains(got, tt.want) {
				t.Errorf("createTableSQL(%d) = %q, want column type %s", tt.dimension, got, tt.want)
			}
		})
	}
}
