package interceptors

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

func TestClientIP_Metadata(t *testing.T) {
	tests := []struct {
		name string
		md   map[string]string
		want string
	}{
		{"x-forwarded-for", map[string]string{"x-forwarded-for": "192.168.1.1"}, "192.168.1.1"},
		{"first hop of a chain", map[string]string{"x-forwarded-for": "192.168.1.1, 10.0.0.1"}, "192.168.1.1"},
		{"x-real-ip", map[string]string{"x-real-ip": "192.168.1.2"}, "192.168.1.2"},
		{"forwarded wins", map[string]string{"x-forwarded-for": "192.168.1.1", "x-real-ip": "192.168.1.2"}, "192.168.1.1"},
		{"whitespace", map[string]string{"x-forwarded-for": "  192.168.1.1  "}, "192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := metadata.NewIncomingContext(context.Background(), metadata.New(tt.md))
			if ip := ClientIP(ctx); ip != tt.want {
				t.Errorf("ip = %q, want %q", ip, tt.want)
			}
		})
	}
}

func TestClientIP_PeerAddress(t *testing.T) {
	ctx := peer.NewContext(context.Background(), &peer.Peer{
		Addr: &net.TCPAddr{IP: net.ParseIP("192.168.1.3"), Port: 12345},
	})
	if ip := ClientIP(ctx); ip != "192.168.1.3" {
		t.Errorf("ip = %q, want %q", ip, "192.168.1.3")
	}
}

func TestClientIP_Unknown(t *testing.T) {
	if ip := ClientIP(context.Background()); ip != "unknown" {
		t.Errorf("ip = %q, want %q", ip, "unknown")
	}
}
