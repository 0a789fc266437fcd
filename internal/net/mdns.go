package net

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service relays advertise themselves under.
const ServiceType = "_redraw._tcp"

// ErrNoRelay is returned by Browse when nothing answered in time.
var ErrNoRelay = errors.New("no relay found on the local network")

// Advertise announces a relay listening on port. Shut the returned server
// down to withdraw the announcement.
func Advertise(port int, boardID string) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	info := []string{"redraw"}
	if boardID != "" {
		info = append(info, "board="+boardID)
	}
	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	Logger().Info("advertising relay", "service", ServiceType, "port", port)
	return server, nil
}

// Browse looks for a relay on the LAN and returns its websocket URL.
func Browse(ctx context.Context, timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	var found string
	go func() {
		defer close(done)
		for e := range entries {
			if found != "" || e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found = fmt.Sprintf("ws://%s:%d/ws", e.AddrV4, e.Port)
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.QueryContext(ctx, params)
	close(entries)
	<-done
	if err != nil {
		return "", fmt.Errorf("mdns query: %w", err)
	}
	if found == "" {
		return "", ErrNoRelay
	}
	return found, nil
}
