package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "norse_myths", "norse_myths"},
		{"keeps safe punctuation", "my-project.v2", "my-project.v2"},
		{"strips unsafe runes", "My: Project!", "My Project"},
		{"collapses whitespace", "a   \t  b", "a b"},
		{"trims", "   padded   ", "padded"},
		{"drops path separators", "../../etc/passwd", "....etcpasswd"},
		{"unusable input", "@#$%^&*", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProjectName(tt.input))
		})
	}
}

func TestProjectName_Truncates(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := ProjectName(long)
	assert.Len(t, got, MaxProjectNameLength)
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "creatures", FoldName("  CREATURES  "))
	assert.Equal(t, FoldName("Creatures"), FoldName("creatures"))
	assert.NotEqual(t, FoldName("creatures"), FoldName("monsters"))
}
