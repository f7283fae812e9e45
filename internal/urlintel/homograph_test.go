package urlintel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHomograph(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected bool
	}{
		{"Plain ASCII host", "www.example.com", false},
		{"Empty host", "", false},
		{"Punycode label", "xn--pple-43d.com", true},
		{"Punycode in subdomain", "login.xn--80ak6aa92e.com", true},
		{"Cyrillic 'a' inside Latin label", "pаypal.com", true},
		{"All-Cyrillic label is a single script", "почта.example", false},
		{"Greek omicron mixed with Latin", "gοogle.com", true},
		{"Digits and hyphens are neutral", "mail-2024.example.com", false},
		{"Trailing root dot", "example.com.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsHomograph(tt.host))
		})
	}
}

func TestIsHomograph_Deterministic(t *testing.T) {
	host := "pаypal.com"
	first := IsHomograph(host)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, IsHomograph(host))
	}
}

func TestDecodeHost(t *testing.T) {
	assert.Equal(t, "аpple.com", DecodeHost("xn--pple-43d.com"))
	assert.Equal(t, "example.com", DecodeHost("example.com"))
}
