package i18n

import (
	"context"
	"testing"

	"github.com/PauloHFS/hcportal/internal/contextkeys"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name   string
		locale any
		want   string
	}{
		{"english", "en", "Sign in"},
		{"portuguese", "pt", "Entrar"},
		{"unknown falls back to english", "fr", "Sign in"},
		{"missing", nil, "Sign in"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.locale != nil {
				ctx = context.WithValue(ctx, contextkeys.LocaleKey, tt.locale)
			}
			if got := Get(ctx).Login; got != tt.want {
				t.Errorf("Get().Login = %q, want %q", got, tt.want)
			}
		})
	}
}
