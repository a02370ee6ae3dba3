package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.JWTIssuer != "auth-ms" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "auth-ms")
	}
	if cfg.JWTTTL != "2h" {
		t.Errorf("JWTTTL = %q, want %q", cfg.JWTTTL, "2h")
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
	if cfg.AuthRequestTopic != "auth-requests" {
		t.Errorf("AuthRequestTopic = %q, want auth-requests", cfg.AuthRequestTopic)
	}
	if cfg.AuthEventsTopic != "auth-events" {
		t.Errorf("AuthEventsTopic = %q, want auth-events", cfg.AuthEventsTopic)
	}
	if cfg.KafkaGroupID != "auth-ms" {
		t.Errorf("KafkaGroupID = %q, want auth-ms", cfg.KafkaGroupID)
	}
	if cfg.DatabaseURL != "" || cfg.KafkaBrokers != "" || cfg.OTLPEndpoint != "" {
		t.Errorf("optional backends should default to empty: %+v", cfg)
	}
	if cfg.TokenTTL() != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", cfg.TokenTTL())
	}
	if cfg.RequestTimeoutDuration() != 10*time.Second {
		t.Errorf("RequestTimeoutDuration = %v, want 10s", cfg.RequestTimeoutDuration())
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("JWT_SECRET", "s3cret")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if !cfg.OTLPInsecure {
		t.Error("OTLPInsecure should be true")
	}
}

func TestLoad_BCRYPT_COSTRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"valid middle", "12", 12, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero", "0", 10, false}, // Should default to 10
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestLoad_ProductionSecret(t *testing.T) {
	testCases := []struct {
		name   string
		secret string
		err    bool
	}{
		{"missing", "", true},
		{"too short", "short", true},
		{"long enough", strings.Repeat("k", 32), false},
		{"from file", "file:/run/secrets/jwt", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("APP_ENV", "production")
			os.Setenv("JWT_SECRET", tc.secret)

			cfg, err := Load()
			if tc.err {
				if err == nil || cfg != nil {
					t.Fatalf("Load = %v, %v; want error", cfg, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
		})
	}
}

func TestLoad_DevelopmentAllowsEmptySecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "development")

	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestTokenTTL(t *testing.T) {
	testCases := []struct {
		value string
		want  time.Duration
	}{
		{"30m", 30 * time.Minute},
		{"invalid", 2 * time.Hour},
		{"0", 2 * time.Hour},
		{"-5m", 2 * time.Hour},
	}
	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("JWT_TTL", tc.value)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := cfg.TokenTTL(); got != tc.want {
				t.Errorf("TokenTTL = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRequestTimeoutDuration(t *testing.T) {
	testCases := []struct {
		value string
		want  time.Duration
	}{
		{"3s", 3 * time.Second},
		{"invalid", 10 * time.Second},
		{"-1s", 10 * time.Second},
	}
	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			cfg := &Config{RequestTimeout: tc.value}
			if got := cfg.RequestTimeoutDuration(); got != tc.want {
				t.Errorf("RequestTimeoutDuration = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestKafkaBrokersList(t *testing.T) {
	testCases := []struct {
		name string
		cfg  *Config
		want []string
	}{
		{"nil config", nil, nil},
		{"empty", &Config{}, nil},
		{"single", &Config{KafkaBrokers: "localhost:9092"}, []string{"localhost:9092"}},
		{"trims and skips blanks", &Config{KafkaBrokers: " a:9092, ,b:9092 "}, []string{"a:9092", "b:9092"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.KafkaBrokersList(); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("KafkaBrokersList = %v, want %v", got, tc.want)
			}
		})
	}
}
