package hostgroup

import (
	"context"
	"fmt"
	"sort"
	"sync"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/steelcutops/snapcut/steelcut/host"
	"github.com/steelcutops/snapcut/steelcut/statemanager"
)

type HostGroup struct {
	sync.RWMutex
	Hosts map[string]*host.Host
}

// NewHostGroup creates a new HostGroup with the given hosts.
func NewHostGroup(hosts ...*host.Host) *HostGroup {
	hostMap := make(map[string]*host.Host)
	for _, h := range hosts {
		hostMap[h.Hostname] = h
	}
	return &HostGroup{Hosts: hostMap}
}

// AddHost adds a host to the HostGroup.
func (hg *HostGroup) AddHost(h *host.Host) {
	hg.Lock()
	defer hg.Unlock()
	if hg.Hosts == nil {
		hg.Hosts = make(map[string]*host.Host)
	}
	hg.Hosts[h.Hostname] = h
}

// RemoveHost removes a host from the HostGroup by its hostname.
func (hg *HostGroup) RemoveHost(hostname string) {
	hg.Lock()
	defer hg.Unlock()
	delete(hg.Hosts, hostname)
}

// HasHost checks if a host with the given hostname exists in the HostGroup.
func (hg *HostGroup) HasHost(hostname string) bool {
	hg.RLock()
	defer hg.RUnlock()
	_, exists := hg.Hosts[hostname]
	return exists
}

// Hostnames returns the member hostnames in sorted order.
func (hg *HostGroup) Hostnames() []string {
	hg.RLock()
	defer hg.RUnlock()
	names := make([]string, 0, len(hg.Hosts))
	for name := range hg.Hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Each runs action on every host, at most maxConcurrency at a time. A host is
// only ever handled by one goroutine. All failures are returned together.
func (hg *HostGroup) Each(ctx context.Context, maxConcurrency int, action func(ctx context.Context, h *host.Host) error) error {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	hg.RLock()
	hosts := make([]*host.Host, 0, len(hg.Hosts))
	for _, h := range hg.Hosts {
		hosts = append(hosts, h)
	}
	hg.RUnlock()

	sem := make(chan struct{}, maxConcurrency)
	errCh := make(chan error, len(hosts))
	var wg sync.WaitGroup

	for _, hst := range hosts {
		wg.Add(1)
		go func(h *host.Host) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
			}
			if err := ctx.Err(); err != nil {
				errCh <- fmt.Errorf("error while processing host %s: %w", h.Hostname, err)
				return
			}

			if err := action(ctx, h); err != nil {
				errCh <- fmt.Errorf("error while processing host %s: %w", h.Hostname, err)
			}
		}(hst)
	}

	wg.Wait()
	close(errCh)

	var result *multierror.Error
	for err := range errCh {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Apply converges every host to the same desired states. Reports are keyed by
// hostname. Hosts with a failed report are also part of the returned error.
func (hg *HostGroup) Apply(ctx context.Context, states []statemanager.DesiredState, maxConcurrency int) (map[string][]statemanager.StateReport, error) {
	var mu sync.Mutex
	reports := make(map[string][]statemanager.StateReport)

	err := hg.Each(ctx, maxConcurrency, func(ctx context.Context, h *host.Host) error {
		hostReports := h.StateManager.Apply(ctx, states)

		mu.Lock()
		reports[h.Hostname] = hostReports
		mu.Unlock()

		var failed *multierror.Error
		for _, r := range hostReports {
			if !r.Result {
				failed = multierror.Append(failed, fmt.Errorf("%s: %s", r.Name, r.Comment))
			}
		}
		return failed.ErrorOrNil()
	})

	return reports, err
}
