package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/pixconv/internal/colormatrix"
	"github.com/rcarmo/pixconv/internal/convert"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name:    "default configuration",
			envVars: map[string]string{},
			want: &Config{
				Server: ServerConfig{
					Host:         "0.0.0.0",
					Port:         "8080",
					ReadTimeout:  30 * time.Second,
					WriteTimeout: 30 * time.Second,
					IdleTimeout:  120 * time.Second,
				},
				Conversion: ConversionConfig{
					Standard:   "bt601",
					Resampling: "avg",
					MaxWidth:   3840,
					MaxHeight:  2160,
					PreviewFPS: 10,
				},
				Security: SecurityConfig{
					AllowedOrigins: []string{},
					MaxConnections: 16,
				},
				Logging: LoggingConfig{Level: "info"},
			},
		},
		{
			name: "custom environment variables",
			envVars: map[string]string{
				"PIXCONV_HOST":            "127.0.0.1",
				"PIXCONV_PORT":            "9090",
				"PIXCONV_LOG_LEVEL":       "debug",
				"PIXCONV_STANDARD":        "bt709",
				"PIXCONV_RESAMPLING":      "nnb",
				"PIXCONV_NO_SIMD":         "true",
				"PIXCONV_MAX_WIDTH":       "1920",
				"PIXCONV_MAX_HEIGHT":      "1080",
				"PIXCONV_PREVIEW_FPS":     "25",
				"PIXCONV_ALLOWED_ORIGINS": "http://a.example, http://b.example",
				"PIXCONV_READ_TIMEOUT":    "5s",
			},
			want: &Config{
				Server: ServerConfig{
					Host:         "127.0.0.1",
					Port:         "9090",
					ReadTimeout:  5 * time.Second,
					WriteTimeout: 30 * time.Second,
					IdleTimeout:  120 * time.Second,
				},
				Conversion: ConversionConfig{
					Standard:   "bt709",
					Resampling: "nnb",
					NoSIMD:     true,
					MaxWidth:   1920,
					MaxHeight:  1080,
					PreviewFPS: 25,
				},
				Security: SecurityConfig{
					AllowedOrigins: []string{"http://a.example", "http://b.example"},
					MaxConnections: 16,
				},
				Logging: LoggingConfig{Level: "debug"},
			},
		},
		{
			name:    "unknown standard",
			envVars: map[string]string{"PIXCONV_STANDARD": "bt2020"},
			wantErr: true,
		},
		{
			name:    "unknown resampling",
			envVars: map[string]string{"PIXCONV_RESAMPLING": "bicubic"},
			wantErr: true,
		},
		{
			name:    "fps out of range",
			envVars: map[string]string{"PIXCONV_PREVIEW_FPS": "0"},
			wantErr: true,
		},
		{
			name:    "bad port",
			envVars: map[string]string{"PIXCONV_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "bad log level",
			envVars: map[string]string{"PIXCONV_LOG_LEVEL": "verbose"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLoadWithOverrides(t *testing.T) {
	t.Setenv("PIXCONV_PORT", "9000")
	t.Setenv("PIXCONV_NO_SIMD", "true")
	off := false
	on := true

	cfg, err := LoadWithOverrides(LoadOptions{
		Port:         "9191",
		LogLevel:     "warn",
		Standard:     "full",
		Resampling:   "nearest",
		NoSIMD:       &off,
		BaselineOnly: &on,
	})
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.Conversion.NoSIMD)
	assert.True(t, cfg.Conversion.BaselineOnly)
	assert.Same(t, cfg, GetGlobalConfig())

	std, res, flags := cfg.Conversion.Defaults()
	assert.Equal(t, colormatrix.FullRange, std)
	assert.Equal(t, convert.Nearest, res)
	assert.Equal(t, convert.BaselineOnly, flags)
}

func TestLoadWithOverridesKeepsEnvWhenUnset(t *testing.T) {
	t.Setenv("PIXCONV_NO_SIMD", "true")
	t.Setenv("PIXCONV_STANDARD", "709")

	cfg, err := LoadWithOverrides(LoadOptions{})
	require.NoError(t, err)

	std, _, flags := cfg.Conversion.Defaults()
	assert.Equal(t, colormatrix.BT709, std)
	assert.Equal(t, convert.NoSIMD, flags)
}

func TestInvalidConfigIsNotPublished(t *testing.T) {
	good, err := Load()
	require.NoError(t, err)

	_, err = LoadWithOverrides(LoadOptions{Port: "not-a-port"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Same(t, good, GetGlobalConfig())
}

func TestAllowsSize(t *testing.T) {
	c := ConversionConfig{MaxWidth: 640, MaxHeight: 480}
	tests := []struct {
		w, h int
		want bool
	}{
		{640, 480, true},
		{16, 2, true},
		{641, 480, false},
		{640, 481, false},
		{0, 10, false},
		{10, -1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.AllowsSize(tt.w, tt.h), "%dx%d", tt.w, tt.h)
	}
}

func TestSplitString(t *testing.T) {
	assert.Equal(t, []string{}, splitString("", ","))
	assert.Equal(t, []string{"a", "b"}, splitString(" a, ,b ", ","))
}

func TestValidateRejectsEmptyPort(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Server.Port = ""
	assert.EqualError(t, cfg.Validate(), "server port cannot be empty")
}
