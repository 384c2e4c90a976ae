package payreq

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDNSResolver is a function-field test double for DNSResolver.
type mockDNSResolver struct {
	LookupSRVFn func(service, proto, name string) (string, []*net.SRV, error)
}

func (m *mockDNSResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	return m.LookupSRVFn(service, proto, name)
}

// --- Unit tests (always run) ---

func TestDiscoverEndpoints(t *testing.T) {
	resolver := &mockDNSResolver{
		LookupSRVFn: func(service, proto, name string) (string, []*net.SRV, error) {
			assert.Equal(t, SRVService, service)
			assert.Equal(t, "tcp", proto)
			assert.Equal(t, "merchant.example", name)
			return "", []*net.SRV{
				{Target: "pay2.merchant.example.", Port: 443, Priority: 10, Weight: 50},
				{Target: "pay1.merchant.example.", Port: 8443, Priority: 1, Weight: 10},
				{Target: "pay3.merchant.example.", Port: 443, Priority: 10, Weight: 80},
			}, nil
		},
	}

	endpoints, err := DiscoverEndpointsWithResolver("merchant.example", resolver)
	require.NoError(t, err)
	// Priority ascending, weight descending within a priority.
	assert.Equal(t, []string{
		"pay1.merchant.example:8443",
		"pay3.merchant.example:443",
		"pay2.merchant.example:443",
	}, endpoints)
}

func TestDiscoverEndpoints_EmptyDomain(t *testing.T) {
	_, err := DiscoverEndpointsWithResolver("", DefaultDNSResolver)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDNSLookupFailed)
}

func TestDiscoverEndpoints_LookupError(t *testing.T) {
	resolver := &mockDNSResolver{
		LookupSRVFn: func(service, proto, name string) (string, []*net.SRV, error) {
			return "", nil, errors.New("no such host")
		},
	}

	_, err := DiscoverEndpointsWithResolver("merchant.example", resolver)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDNSLookupFailed)
}

func TestDiscoverEndpoints_NoRecords(t *testing.T) {
	resolver := &mockDNSResolver{
		LookupSRVFn: func(service, proto, name string) (string, []*net.SRV, error) {
			return "", nil, nil
		},
	}

	_, err := DiscoverEndpointsWithResolver("merchant.example", resolver)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEndpoints)
}

func TestDNSSECResolver_ImplementsDNSResolver(t *testing.T) {
	var _ DNSResolver = (*DNSSECResolver)(nil)
}

func TestNewDNSSECResolver_Defaults(t *testing.T) {
	r := NewDNSSECResolver("")
	assert.Equal(t, "8.8.8.8:53", r.Upstream)
}

func TestNewDNSSECResolver_Custom(t *testing.T) {
	r := NewDNSSECResolver("1.1.1.1:53")
	assert.Equal(t, "1.1.1.1:53", r.Upstream)
}

// --- Integration tests (skip in short mode) ---

func TestDNSSECResolver_LookupSRV_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	r := NewDNSSECResolver("")

	// Try a well-known SRV record. _imaps._tcp.gmail.com is commonly available.
	_, srvs, err := r.LookupSRV("imaps", "tcp", "gmail.com")
	if err != nil {
		// AD flag may not be set; skip gracefully.
		if errors.Is(err, ErrDNSSECValidationFailed) {
			t.Skipf("skipping: upstream resolver did not set AD flag: %v", err)
		}
		// Some networks block non-standard SRV lookups; skip gracefully.
		t.Skipf("skipping: SRV lookup failed (may be network-dependent): %v", err)
	}

	require.NotEmpty(t, srvs)
	for _, srv := range srvs {
		assert.NotEmpty(t, srv.Target)
		t.Logf("SRV: %s:%d (priority=%d, weight=%d)", srv.Target, srv.Port, srv.Priority, srv.Weight)
	}
}
