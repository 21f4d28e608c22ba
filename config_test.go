package responder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "0.0.0.0", cfg.Address)
	require.Equal(t, 8888, cfg.Port)
	require.Equal(t, 128, cfg.Backlog)
	require.Equal(t, 1024, cfg.ReadSize)
	require.True(t, cfg.ReuseAddr)
	require.Zero(t, cfg.ReadTimeout)
	require.Equal(t, EngineSyscall, cfg.Engine)
	require.Equal(t, "HTTP/1.1 200 OK\r\n\r\nHello, World!", string(cfg.Response))
	require.Equal(t, "0.0.0.0:8888", cfg.HostPort())
	require.NoError(t, cfg.Validate())

	// The default response is copied, not shared.
	cfg.Response[0] = 'X'
	require.Equal(t, byte('H'), DefaultResponse[0])
}

func TestConfigHostPortIPv6(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = "::1"
	cfg.Port = 80
	require.Equal(t, "[::1]:80", cfg.HostPort())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "ephemeral port", mutate: func(c *Config) { c.Port = 0 }, ok: true},
		{name: "negative port", mutate: func(c *Config) { c.Port = -1 }},
		{name: "large port", mutate: func(c *Config) { c.Port = 65536 }},
		{name: "zero backlog", mutate: func(c *Config) { c.Backlog = 0 }},
		{name: "zero read size", mutate: func(c *Config) { c.ReadSize = 0 }},
		{name: "negative timeout", mutate: func(c *Config) { c.ReadTimeout = -time.Second }},
		{name: "timeout", mutate: func(c *Config) { c.ReadTimeout = time.Second }, ok: true},
		{name: "empty response", mutate: func(c *Config) { c.Response = nil }},
		{name: "unknown engine", mutate: func(c *Config) { c.Engine = "epoll" }},
		{name: "iouring", mutate: func(c *Config) { c.Engine = EngineIOUring }, ok: true},
		{name: "iouring bad entries", mutate: func(c *Config) {
			c.Engine = EngineIOUring
			c.RingEntries = 100
		}},
		{name: "iouring zero entries", mutate: func(c *Config) {
			c.Engine = EngineIOUring
			c.RingEntries = 0
		}},
		{name: "syscall ignores entries", mutate: func(c *Config) { c.RingEntries = 100 }, ok: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.mutate(&cfg)
			err := cfg.Validate()
			if test.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
		})
	}
}
