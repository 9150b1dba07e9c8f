package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"
)

// HassServiceType is the mDNS service Home Assistant announces.
const HassServiceType = "_home-assistant._tcp"

// Instance is a Home Assistant server found on the local network.
type Instance struct {
	Name    string
	Host    string
	Port    int
	BaseURL string
	Version string
}

// Browser finds zeroconf service entries. [zeroconf.Resolver] satisfies it.
type Browser interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// Discover browses the local network until ctx is done and returns the instances found, sorted by name.
//
// A nil browser uses a new [zeroconf.Resolver].
func Discover(ctx context.Context, browser Browser) ([]Instance, error) {
	if browser == nil {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize resolver: %w", err)
		}
		browser = resolver
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(map[string]Instance)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if inst, ok := instanceFromEntry(entry); ok {
					found[inst.Name] = inst
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := browser.Browse(ctx, HassServiceType, "local.", entries); err != nil {
		cancel()
		wg.Wait()
		return nil, fmt.Errorf("failed to browse for %s: %w", HassServiceType, err)
	}

	<-ctx.Done()
	wg.Wait()

	instances := make([]Instance, 0, len(found))
	for _, inst := range found {
		instances = append(instances, inst)
	}
	sort.Slice(instances, func(i, j int) bool { return instances[i].Name < instances[j].Name })
	return instances, nil
}

// instanceFromEntry prefers the base_url TXT record and falls back to the first IPv4 address.
func instanceFromEntry(entry *zeroconf.ServiceEntry) (Instance, bool) {
	if entry == nil {
		return Instance{}, false
	}

	inst := Instance{Name: entry.Instance, Port: entry.Port}
	for _, txt := range entry.Text {
		key, value, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		switch key {
		case "base_url", "internal_url":
			if inst.BaseURL == "" {
				inst.BaseURL = value
			}
		case "version":
			inst.Version = value
		}
	}

	switch {
	case len(entry.AddrIPv4) > 0:
		inst.Host = entry.AddrIPv4[0].String()
	case entry.HostName != "":
		inst.Host = strings.TrimSuffix(entry.HostName, ".")
	default:
		return Instance{}, false
	}

	if inst.BaseURL == "" {
		inst.BaseURL = fmt.Sprintf("http://%s:%d", inst.Host, inst.Port)
	}
	return inst, true
}
