package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsBadFields(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
	}{
		{name: "zero send window", cfg: Config{SendWindow: 0, RecvWindow: 1, RtTimeoutMs: 100, TimerMs: 10, MaxRetransmits: 1}},
		{name: "zero recv window", cfg: Config{SendWindow: 1, RecvWindow: 0, RtTimeoutMs: 100, TimerMs: 10, MaxRetransmits: 1}},
		{name: "zero rt timeout", cfg: Config{SendWindow: 1, RecvWindow: 1, RtTimeoutMs: 0, TimerMs: 10, MaxRetransmits: 1}},
		{name: "zero timer", cfg: Config{SendWindow: 1, RecvWindow: 1, RtTimeoutMs: 100, TimerMs: 0, MaxRetransmits: 1}},
		{name: "timer coarser than rt timeout", cfg: Config{SendWindow: 1, RecvWindow: 1, RtTimeoutMs: 100, TimerMs: 200, MaxRetransmits: 1}},
		{name: "zero max retransmits", cfg: Config{SendWindow: 1, RecvWindow: 1, RtTimeoutMs: 100, TimerMs: 10, MaxRetransmits: 0}},
	}

	for _, tc := range testCases {
		if err := tc.cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", tc.name)
		}
	}
}

func TestLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("send_window: 8\nrecv_window: 8\nrt_timeout_ms: 500\ntimer_ms: 50\nmax_retransmits: 3\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SendWindow != 8 || cfg.RecvWindow != 8 || cfg.RtTimeoutMs != 500 || cfg.TimerMs != 50 || cfg.MaxRetransmits != 3 {
		t.Errorf("LoadConfig result = %+v, want send=8 recv=8 rt=500 timer=50 maxretx=3", cfg)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("send_window: 0\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig with send_window: 0 = nil error, want error")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig on missing file = nil error, want error")
	}
}
