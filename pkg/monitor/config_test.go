package monitor

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Facility != DefaultFacility {
		t.Errorf("Facility = %q, want %q", cfg.Facility, DefaultFacility)
	}
	if cfg.Domains != "" || cfg.MQPath != "" || cfg.StartOnOpen != "" {
		t.Error("default config must not arm any filter or gate")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvFacility, "build")
	t.Setenv(EnvMQPath, "/var/run/app.pid")
	t.Setenv(EnvDomains, "FILE_READ,FILE_WRITE")
	t.Setenv(EnvStartOnOpen, "main.dat")
	t.Setenv(EnvStartOnElapsed, "2.5")

	cfg := LoadFromEnv()
	if cfg.Facility != "build" {
		t.Errorf("Facility = %q", cfg.Facility)
	}
	if cfg.MQPath != "/var/run/app.pid" {
		t.Errorf("MQPath = %q", cfg.MQPath)
	}
	if cfg.Domains != "FILE_READ,FILE_WRITE" {
		t.Errorf("Domains = %q", cfg.Domains)
	}
	if cfg.StartOnOpen != "main.dat" {
		t.Errorf("StartOnOpen = %q", cfg.StartOnOpen)
	}
	if cfg.StartOnElapsedMS != 2.5 {
		t.Errorf("StartOnElapsedMS = %g", cfg.StartOnElapsedMS)
	}
	if !cfg.paused() {
		t.Error("gated config must start paused")
	}
}

func TestLoadFromEnvDegradesQuietly(t *testing.T) {
	t.Setenv(EnvStartOnElapsed, "not-a-number")
	if cfg := LoadFromEnv(); cfg.StartOnElapsedMS != 0 {
		t.Errorf("malformed elapsed trigger produced %g", cfg.StartOnElapsedMS)
	}

	// values below the usable threshold are ignored, not rounded up
	t.Setenv(EnvStartOnElapsed, "0.01")
	if cfg := LoadFromEnv(); cfg.StartOnElapsedMS != 0 {
		t.Errorf("sub-threshold elapsed trigger produced %g", cfg.StartOnElapsedMS)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{Facility: "u"}, false},
		{"empty facility", Config{}, true},
		{"negative trigger", Config{Facility: "u", StartOnElapsedMS: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTruncateFacility(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultFacility},
		{"u", "u"},
		{"ci", "ci"},
		{"unit", "unit"},
		{"unitary", "unit"},
	}
	for _, tt := range tests {
		if got := truncateFacility(tt.in); got != tt.want {
			t.Errorf("truncateFacility(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
