package database

import (
	"testing"

	"coaching_backend/internal/config"
)

func TestShouldMigrate(t *testing.T) {
	tests := []struct {
		name  string
		mode  string
		force bool
		want  bool
	}{
		{"debug mode migrates by default", "debug", false, true},
		{"test mode migrates by default", "test", false, true},
		{"release mode skips by default", "release", false, false},
		{"release mode with force flag migrates", "release", true, true},
		{"debug mode with force flag migrates", "debug", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Server:       config.ServerConfig{Mode: tt.mode},
				ForceMigrate: tt.force,
			}
			if got := shouldMigrate(cfg); got != tt.want {
				t.Errorf("shouldMigrate(mode=%q, force=%v) = %v, want %v",
					tt.mode, tt.force, got, tt.want)
			}
		})
	}
}
