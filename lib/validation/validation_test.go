package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRequired(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		wantErr bool
	}{
		{"valid string", "addr", "localhost:5432", false},
		{"empty string", "addr", "", true},
		{"whitespace only", "addr", "   ", true},
		{"tab only", "addr", "\t", true},
		{"newline only", "addr", "\n", true},
		{"valid with spaces", "addr", " x ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Required(tt.field, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Required() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrRequired) {
				t.Errorf("Required() error should wrap ErrRequired")
			}
		})
	}
}

func TestMaxLength(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		max     int
		wantErr bool
	}{
		{"under max", "payload", "test", 10, false},
		{"at max", "payload", "test", 4, false},
		{"over max", "payload", "testing", 4, true},
		{"empty string", "payload", "", 10, false},
		{"unicode chars", "payload", "日本語", 5, false},
		{"unicode over", "payload", "日本語テスト", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MaxLength(tt.field, tt.value, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("MaxLength() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrTooLong) {
				t.Errorf("MaxLength() error should wrap ErrTooLong")
			}
		})
	}
}

func TestIntRange(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		min     int
		max     int
		wantErr bool
	}{
		{"within range", 5, 1, 10, false},
		{"at min", 1, 1, 10, false},
		{"at max", 10, 1, 10, false},
		{"below min", 0, 1, 10, true},
		{"above max", 11, 1, 10, true},
		{"negative", -5, 0, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := IntRange("field", tt.value, tt.min, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("IntRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrOutOfRange) {
				t.Errorf("IntRange() error should wrap ErrOutOfRange")
			}
		})
	}
}

func TestPositive(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"positive", 1, false},
		{"large positive", 1000, false},
		{"zero", 0, true},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Positive("field", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Positive() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNonNegative(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"positive", 1, false},
		{"zero", 0, false},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NonNegative("field", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("NonNegative() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPositiveDuration(t *testing.T) {
	tests := []struct {
		name    string
		value   time.Duration
		wantErr bool
	}{
		{"positive", time.Second, false},
		{"large positive", 24 * time.Hour, false},
		{"zero", 0, true},
		{"negative", -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PositiveDuration("field", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("PositiveDuration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrOutOfRange) {
				t.Errorf("PositiveDuration() error should wrap ErrOutOfRange")
			}
		})
	}
}

func TestNonNegativeDuration(t *testing.T) {
	tests := []struct {
		name    string
		value   time.Duration
		wantErr bool
	}{
		{"positive", time.Second, false},
		{"zero", 0, false},
		{"negative", -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NonNegativeDuration("field", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("NonNegativeDuration() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHostPort(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid localhost", "127.0.0.1:8080", false},
		{"valid hostname", "db.internal:5432", false},
		{"valid ipv6", "[::1]:8080", false},
		{"empty", "", true},
		{"no port", "127.0.0.1", true},
		{"no host", ":8080", false}, // This is actually valid in Go
		{"invalid format", "not-a-hostport", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HostPort("address", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("HostPort() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPort(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"valid low", 1, false},
		{"valid high", 65535, false},
		{"common port", 8080, false},
		{"zero", 0, true},
		{"negative", -1, true},
		{"too high", 65536, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Port("port", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Port() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackendAddr(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid localhost", "127.0.0.1:9900", false},
		{"valid hostname", "db.internal:5432", false},
		{"valid ipv6", "[::1]:9900", false},
		{"named service", "db.internal:postgresql", false},
		{"empty", "", true},
		{"no port", "127.0.0.1", true},
		{"empty port", "127.0.0.1:", true},
		{"port zero", "127.0.0.1:0", true},
		{"port too high", "127.0.0.1:70000", true},
		{"invalid format", "not-an-addr", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := BackendAddr("addr", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("BackendAddr() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProbePayload(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"typical", "PING\n", false},
		{"empty is valid", "", false},
		{"at max", strings.Repeat("a", MaxProbePayloadLength), false},
		{"too long", strings.Repeat("a", MaxProbePayloadLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ProbePayload("probe_payload", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ProbePayload() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCredential(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid", "alice", false},
		{"empty is valid", "", false},
		{"too long", strings.Repeat("a", MaxCredentialLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Credential("username", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Credential() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAll(t *testing.T) {
	t.Run("all pass", func(t *testing.T) {
		err := All(
			func() error { return nil },
			func() error { return nil },
		)
		if err != nil {
			t.Errorf("All() = %v, want nil", err)
		}
	})

	t.Run("first fails", func(t *testing.T) {
		expectedErr := errors.New("first error")
		err := All(
			func() error { return expectedErr },
			func() error { return nil },
		)
		if err != expectedErr {
			t.Errorf("All() = %v, want %v", err, expectedErr)
		}
	})

	t.Run("second fails", func(t *testing.T) {
		expectedErr := errors.New("second error")
		err := All(
			func() error { return nil },
			func() error { return expectedErr },
		)
		if err != expectedErr {
			t.Errorf("All() = %v, want %v", err, expectedErr)
		}
	})
}

func TestErrors(t *testing.T) {
	t.Run("empty collection", func(t *testing.T) {
		var errs Errors
		if errs.HasErrors() {
			t.Error("empty Errors should not HasErrors")
		}
		if errs.First() != nil {
			t.Error("empty Errors.First() should be nil")
		}
		if errs.Error() != "" {
			t.Error("empty Errors.Error() should be empty string")
		}
	})

	t.Run("add nil is ignored", func(t *testing.T) {
		var errs Errors
		errs.Add(nil)
		if errs.HasErrors() {
			t.Error("adding nil should not create error")
		}
	})

	t.Run("single error", func(t *testing.T) {
		var errs Errors
		e := errors.New("test error")
		errs.Add(e)

		if !errs.HasErrors() {
			t.Error("should HasErrors")
		}
		if errs.First() != e {
			t.Error("First() should return the error")
		}
		if errs.Error() != "test error" {
			t.Errorf("Error() = %q, want %q", errs.Error(), "test error")
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		var errs Errors
		errs.Add(errors.New("first"))
		errs.Add(errors.New("second"))

		if len(errs) != 2 {
			t.Errorf("len(errs) = %d, want 2", len(errs))
		}
		if !strings.Contains(errs.Error(), "first") || !strings.Contains(errs.Error(), "second") {
			t.Errorf("Error() should contain both errors: %s", errs.Error())
		}
	})
}

func TestResult(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		r := NewResult("addr", "is required", ErrRequired)
		if r.Error() != "addr: is required" {
			t.Errorf("Error() = %q, want %q", r.Error(), "addr: is required")
		}
		if !errors.Is(r, ErrRequired) {
			t.Error("should wrap ErrRequired")
		}
	})

	t.Run("without field", func(t *testing.T) {
		r := NewResult("", "general error", ErrInvalidFormat)
		if r.Error() != "general error" {
			t.Errorf("Error() = %q, want %q", r.Error(), "general error")
		}
	})
}
