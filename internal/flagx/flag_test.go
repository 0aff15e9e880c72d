package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-a", ":8081", "-x", "junk"},
			allowed: []string{"-a"},
			want:    []string{"-a", ":8081"},
		},
		{
			name:    "equals form",
			args:    []string{"-a=:8081", "-x=junk"},
			allowed: []string{"-a"},
			want:    []string{"-a=:8081"},
		},
		{
			name:    "flag without value",
			args:    []string{"-v", "-a", ":8081"},
			allowed: []string{"-v"},
			want:    []string{"-v"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-a", ":8081"},
			allowed: []string{},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin", "-c", "conf.json", "-a", ":8081"}
	assert.Equal(t, "conf.json", JsonConfigFlags())

	os.Args = []string{"testbin", "-a", ":8081"}
	assert.Equal(t, "", JsonConfigFlags())
}
