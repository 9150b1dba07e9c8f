package services

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

type fakeBrowser struct {
	entries []*zeroconf.ServiceEntry
	err     error
}

func (f *fakeBrowser) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	if f.err != nil {
		return f.err
	}
	go func() {
		for _, e := range f.entries {
			select {
			case entries <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func entry(instance, host string, port int, ip string, text ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, HassServiceType, "local.")
	e.HostName = host
	e.Port = port
	e.Text = text
	if ip != "" {
		e.AddrIPv4 = []net.IP{net.ParseIP(ip)}
	}
	return e
}

func TestDiscover(t *testing.T) {
	t.Run("Instances", func(t *testing.T) {
		browser := &fakeBrowser{entries: []*zeroconf.ServiceEntry{
			entry("Home", "homeassistant.local.", 8123, "192.168.1.10", "version=2025.1.0", "base_url=http://192.168.1.10:8123"),
			entry("Cabin", "cabin.local.", 8123, "", "version=2024.12.1"),
			nil,
		}}

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		instances, err := Discover(ctx, browser)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(instances) != 2 {
			t.Fatalf("expected 2 instances, got %d", len(instances))
		}

		cabin, home := instances[0], instances[1]
		if cabin.Name != "Cabin" || cabin.Host != "cabin.local" || cabin.BaseURL != "http://cabin.local:8123" {
			t.Errorf("unexpected cabin %+v", cabin)
		}
		if home.BaseURL != "http://192.168.1.10:8123" || home.Version != "2025.1.0" || home.Host != "192.168.1.10" {
			t.Errorf("unexpected home %+v", home)
		}
	})

	t.Run("BrowseError", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if _, err := Discover(ctx, &fakeBrowser{err: errors.New("no multicast")}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("NoAddress", func(t *testing.T) {
		if _, ok := instanceFromEntry(&zeroconf.ServiceEntry{}); ok {
			t.Error("entry without an address should be skipped")
		}
	})
}
