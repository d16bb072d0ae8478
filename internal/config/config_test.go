package config

import "testing"

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LINEBOARD_SIP_DOMAIN", "sip.example.com")
	t.Setenv("LINEBOARD_SIP_WS_URL", "wss://sip.example.com:7443")
	t.Setenv("LINEBOARD_SIP_USER", "100")
	t.Setenv("LINEBOARD_SIP_PASSWORD", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if cfg.Domain != "sip.example.com" {
		t.Errorf("Domain = %q, want sip.example.com", cfg.Domain)
	}
	if cfg.ListenAddr != "127.0.0.1:8090" {
		t.Errorf("ListenAddr = %q, want default 127.0.0.1:8090", cfg.ListenAddr)
	}
	if cfg.MediaPort != 40000 {
		t.Errorf("MediaPort = %d, want default 40000", cfg.MediaPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", cfg.LogLevel)
	}
}

func TestLoadRejectsMissingAccount(t *testing.T) {
	t.Setenv("LINEBOARD_SIP_DOMAIN", "")
	t.Setenv("LINEBOARD_SIP_WS_URL", "")
	t.Setenv("LINEBOARD_SIP_USER", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted empty account")
	}
}

func TestEngineConfigMapping(t *testing.T) {
	cfg := &Config{
		Domain:            "sip.example.com",
		WebSocketURL:      "wss://sip.example.com:7443",
		AuthorizationUser: "100",
		Password:          "secret",
		DisplayName:       "Operator",
		Debug:             true,
	}

	ec := cfg.EngineConfig()
	if ec.Domain != cfg.Domain || ec.WebSocketURL != cfg.WebSocketURL {
		t.Errorf("engine config account mismatch: %+v", ec)
	}
	if ec.AuthorizationUser != "100" || ec.DisplayName != "Operator" {
		t.Errorf("engine config identity mismatch: %+v", ec)
	}
	if !ec.Debug {
		t.Error("Debug not carried over")
	}
}
