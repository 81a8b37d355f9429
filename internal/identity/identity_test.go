package identity

import (
	"net/http/httptest"
	"testing"
)

func TestHeaderVerifier(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantAddr string
		wantOK   bool
	}{
		{
			name:     "valid checksummed",
			header:   "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
			wantAddr: "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
			wantOK:   true,
		},
		{
			name:     "valid lowercase",
			header:   "0xabcdef0123456789abcdef0123456789abcdef01",
			wantAddr: "0xabcdef0123456789abcdef0123456789abcdef01",
			wantOK:   true,
		},
		{
			name:     "surrounding whitespace",
			header:   " 0x209693Bc6afc0C5328bA36FaF03C514EF312287C ",
			wantAddr: "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
			wantOK:   true,
		},
		{name: "absent", header: "", wantOK: false},
		{name: "too short", header: "0x1234", wantOK: false},
		{name: "not hex", header: "0xZZZZef0123456789abcdef0123456789abcdef01", wantOK: false},
		{name: "no prefix", header: "abcdef0123456789abcdef0123456789abcdef01", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(WalletHeader, tt.header)
			}
			addr, ok := HeaderVerifier{}.Verify(req)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && addr != tt.wantAddr {
				t.Errorf("addr = %q, want %q", addr, tt.wantAddr)
			}
		})
	}
}

func TestAnonymous(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(WalletHeader, "0x209693Bc6afc0C5328bA36FaF03C514EF312287C")
	if _, ok := (Anonymous{}).Verify(req); ok {
		t.Error("Anonymous yielded an identity")
	}
}
