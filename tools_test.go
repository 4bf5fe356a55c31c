package sorttools

import (
	"testing"
)

func TestHostAddrValidator(t *testing.T) {
	tests := []struct {
		name  string
		input string
		fail  bool
	}{
		{
			name:  "valid ipv4 and port",
			input: "1.1.1.1:8080",
			fail:  false,
		},
		{
			name:  "valid ipv6 and port",
			input: "[::1]:50051",
			fail:  false,
		},
		{
			name:  "any address and port",
			input: ":50051",
			fail:  false,
		},
		{
			name:  "valid ipv4 and no port",
			input: "1.1.1.1",
			fail:  true,
		},
		{
			name:  "valid dns and port",
			input: "localhost:8080",
			fail:  false,
		},
		{
			name:  "valid dns and no port",
			input: "localhost",
			fail:  true,
		},
		{
			name:  "non numeric port",
			input: "1.1.1.1:http-alt",
			fail:  true,
		},
		{
			name:  "port out of range",
			input: "1.1.1.1:70000",
			fail:  true,
		},
		{
			name:  "zero port",
			input: "1.1.1.1:0",
			fail:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HostAddrValidator(tt.input)
			if err != nil && !tt.fail {
				t.Fatalf("supposed to succeed but fail with error: %+v", err)
			}
			if err == nil && tt.fail {
				t.Fatalf("supposed to fail but succeeded")
			}
		})
	}
}
