package addr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeii/mcscan/internal/core/entities/addr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    addr.Addr
		wantErr error
	}{
		{
			name:    "ipv4 with port",
			address: "1.1.1.1:25566",
			want:    addr.Addr{Host: "1.1.1.1", Port: 25566},
		},
		{
			name:    "bare ipv4 gets the default port",
			address: "1.1.1.1",
			want:    addr.Addr{Host: "1.1.1.1", Port: 25565},
		},
		{
			name:    "surrounding whitespace is ignored",
			address: " 10.0.0.1:25565 ",
			want:    addr.Addr{Host: "10.0.0.1", Port: 25565},
		},
		{
			name:    "hostname with port",
			address: "mc.example.com:19132",
			want:    addr.Addr{Host: "mc.example.com", Port: 19132},
		},
		{
			name:    "bare hostname",
			address: "localhost",
			want:    addr.Addr{Host: "localhost", Port: 25565},
		},
		{
			name:    "bracketed ipv6 with port",
			address: "[2001:db8::1]:25570",
			want:    addr.Addr{Host: "2001:db8::1", Port: 25570},
		},
		{
			name:    "bare ipv6",
			address: "2001:db8::1",
			want:    addr.Addr{Host: "2001:db8::1", Port: 25565},
		},
		{
			name:    "empty address",
			address: "",
			wantErr: addr.ErrInvalidHost,
		},
		{
			name:    "missing host",
			address: ":25565",
			wantErr: addr.ErrInvalidHost,
		},
		{
			name:    "non numeric port",
			address: "1.1.1.1:abc",
			wantErr: addr.ErrInvalidPort,
		},
		{
			name:    "port out of range",
			address: "1.1.1.1:65536",
			wantErr: addr.ErrInvalidPort,
		},
		{
			name:    "zero port",
			address: "1.1.1.1:0",
			wantErr: addr.ErrInvalidPort,
		},
		{
			name:    "unspecified ip",
			address: "0.0.0.0:25565",
			wantErr: addr.ErrInvalidHost,
		},
		{
			name:    "garbage host",
			address: "not a host:25565",
			wantErr: addr.ErrInvalidHost,
		},
		{
			name:    "too many colons",
			address: "1.1.1.1:25565:1",
			wantErr: addr.ErrInvalidPort,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := addr.Parse(tt.address)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, addr.Blank, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddr_String(t *testing.T) {
	assert.Equal(t, "1.1.1.1:25565", addr.MustParse("1.1.1.1").String())
	assert.Equal(t, "[2001:db8::1]:25565", addr.MustParse("2001:db8::1").String())
	assert.Equal(t, "mc.example.com:25570", addr.MustNew("mc.example.com", 25570).String())
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() {
		addr.MustParse("1.1.1.1:0")
	})
}
