package memory

import (
	"runtime/debug"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		limit string
		ratio string
		want  ConfigResult
	}{
		{
			name: "unset",
			want: ConfigResult{Source: "none"},
		},
		{
			name:  "default ratio",
			limit: "1000000",
			want:  ConfigResult{Configured: true, Source: "MEMORY_LIMIT", ContainerLimit: 1000000, GoMemLimit: 850000, Ratio: 0.85},
		},
		{
			name:  "custom ratio",
			limit: "1000000",
			ratio: "0.5",
			want:  ConfigResult{Configured: true, Source: "MEMORY_LIMIT", ContainerLimit: 1000000, GoMemLimit: 500000, Ratio: 0.5},
		},
		{
			name:  "ratio of one",
			limit: "1000000",
			ratio: "1",
			want:  ConfigResult{Configured: true, Source: "MEMORY_LIMIT", ContainerLimit: 1000000, GoMemLimit: 1000000, Ratio: 1},
		},
		{
			name:  "ratio out of range",
			limit: "1000000",
			ratio: "1.5",
			want:  ConfigResult{Configured: true, Source: "MEMORY_LIMIT", ContainerLimit: 1000000, GoMemLimit: 850000, Ratio: 0.85},
		},
		{
			name:  "ratio garbage",
			limit: "1000000",
			ratio: "lots",
			want:  ConfigResult{Configured: true, Source: "MEMORY_LIMIT", ContainerLimit: 1000000, GoMemLimit: 850000, Ratio: 0.85},
		},
		{
			name:  "limit garbage",
			limit: "512Mi",
			want:  ConfigResult{Source: "none"},
		},
		{
			name:  "negative limit",
			limit: "-5",
			want:  ConfigResult{Source: "none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolve(tt.limit, tt.ratio); got != tt.want {
				t.Errorf("resolve(%q, %q) = %+v, want %+v", tt.limit, tt.ratio, got, tt.want)
			}
		})
	}
}

func TestConfigureFromEnv(t *testing.T) {
	original := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(original) })

	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "2147483648")
	t.Setenv("MEMORY_RATIO", "0.75")

	result := ConfigureFromEnv()
	if !result.Configured || result.Source != "MEMORY_LIMIT" {
		t.Fatalf("ConfigureFromEnv() = %+v", result)
	}
	if got := debug.SetMemoryLimit(-1); got != result.GoMemLimit {
		t.Errorf("runtime memory limit = %d, want %d", got, result.GoMemLimit)
	}
}

func TestConfigureFromEnvUnset(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "")

	if result := ConfigureFromEnv(); result.Configured || result.Source != "none" {
		t.Errorf("ConfigureFromEnv() = %+v, want unconfigured", result)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{5 * 1024 * 1024 * 1024, "5.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
