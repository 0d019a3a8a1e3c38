// Package devices discovers cast receivers on the local network over mDNS
// and keeps a health-checked registry of them.
package devices

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/mdns"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mjsorribas/PopcornCast/internal/iptools"
)

const (
	googlecastService = "_googlecast._tcp"

	// mDNS query timeout per request.
	queryTimeout = 750 * time.Millisecond
	// Faster polling while the cache is empty for quick first discovery.
	pollIntervalFast = 1 * time.Second
	// Slower polling once at least one receiver is known.
	pollIntervalSlow = 4 * time.Second
	// Cadence for dropping unreachable receivers.
	healthInterval = 5 * time.Second
	// Minimum spacing between user-triggered rescans.
	rescanEvery = 3 * time.Second

	// capabilityVideoOut is bit 0 of the ca TXT bitmask.
	capabilityVideoOut = 1
)

var ErrNoReceivers = errors.New("no cast receivers discovered")

// Receiver is a cast device seen on the network.
type Receiver struct {
	Name      string
	Host      string
	Port      int
	UUID      string
	Model     string
	AudioOnly bool
}

// Addr returns the host:port the cast protocol dials.
func (r Receiver) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// txtRecord is the key=value TXT payload a receiver advertises.
type txtRecord struct {
	FriendlyName string `mapstructure:"fn"`
	Model        string `mapstructure:"md"`
	UUID         string `mapstructure:"id"`
	Capabilities string `mapstructure:"ca"`
}

func parseTXT(fields []string) (txtRecord, error) {
	kv := make(map[string]string, len(fields))
	for _, field := range fields {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		kv[k] = v
	}

	var rec txtRecord
	if err := mapstructure.Decode(kv, &rec); err != nil {
		return txtRecord{}, fmt.Errorf("parseTXT decode error: %w", err)
	}

	return rec, nil
}

// isAudioOnly checks the ca capability bitmask. Devices without the video
// out bit are audio-only (speakers, audio dongles). Parse failures assume
// a standard video device.
func isAudioOnly(caField string) bool {
	ca, err := strconv.Atoi(caField)
	if err != nil {
		return false
	}

	return ca&capabilityVideoOut == 0
}

// Registry caches discovered receivers behind a mutex.
type Registry struct {
	mu        sync.Mutex
	receivers map[string]Receiver
	warmup    sync.Once
	limiter   *rate.Limiter

	Logger      zerolog.Logger
	LogOutput   io.Writer
	initLogOnce sync.Once
}

func NewRegistry() *Registry {
	return &Registry{
		receivers: make(map[string]Receiver),
		limiter:   rate.NewLimiter(rate.Every(rescanEvery), 1),
	}
}

func (r *Registry) Log() *zerolog.Logger {
	r.initLogOnce.Do(func() {
		if r.LogOutput == nil {
			r.Logger = zerolog.New(io.Discard)
			return
		}
		r.Logger = zerolog.New(r.LogOutput).With().Timestamp().Logger()
	})

	return &r.Logger
}

func (r *Registry) upsert(entry *mdns.ServiceEntry) {
	if entry == nil || entry.AddrV4 == nil {
		return
	}
	if !strings.Contains(entry.Name, "_googlecast") {
		return
	}

	rec, err := parseTXT(entry.InfoFields)
	if err != nil {
		r.Log().Debug().Str("Method", "upsert").Err(err).Msg("Ignoring TXT record")
		rec = txtRecord{}
	}

	name := rec.FriendlyName
	if name == "" {
		name = entry.Name
		if idx := strings.Index(name, "._googlecast"); idx > 0 {
			name = name[:idx]
		}
	}

	recv := Receiver{
		Name:      name,
		Host:      entry.AddrV4.String(),
		Port:      entry.Port,
		UUID:      rec.UUID,
		Model:     rec.Model,
		AudioOnly: isAudioOnly(rec.Capabilities),
	}

	r.mu.Lock()
	r.receivers[recv.Addr()] = recv
	r.mu.Unlock()

	r.Log().Debug().Str("Method", "upsert").Str("Receiver", recv.Name).Str("Addr", recv.Addr()).Msg("Receiver cached")
}

// scan runs one mDNS pass over every active interface. Querying each
// interface covers hosts with multiple adapters where the OS default is
// not the one facing the receiver network.
func (r *Registry) scan(timeout time.Duration) {
	entriesCh := make(chan *mdns.ServiceEntry, 256)
	doneCh := make(chan struct{})
	go func() {
		defer close(doneCh)
		for entry := range entriesCh {
			r.upsert(entry)
		}
	}()

	queryIface := func(iface *net.Interface) {
		params := mdns.DefaultParams(googlecastService)
		params.Entries = entriesCh
		params.Timeout = timeout
		params.DisableIPv6 = true
		params.WantUnicastResponse = true
		params.Logger = log.New(io.Discard, "", 0)
		params.Interface = iface
		_ = mdns.Query(params)
	}

	interfaces := activeInterfaces()
	if len(interfaces) > 0 {
		var wg sync.WaitGroup
		for _, iface := range interfaces {
			wg.Add(1)
			go func(iface net.Interface) {
				defer wg.Done()
				queryIface(&iface)
			}(iface)
		}
		wg.Wait()
	} else {
		queryIface(nil)
	}

	close(entriesCh)
	<-doneCh
}

// Warmup runs the first scan exactly once.
func (r *Registry) Warmup() {
	r.warmup.Do(func() {
		r.scan(queryTimeout)
	})
}

// Rescan runs one discovery pass, throttled so screen-triggered refreshes
// cannot flood the network, and returns the receiver list either way.
func (r *Registry) Rescan() []Receiver {
	if r.limiter.Allow() {
		r.scan(queryTimeout)
	}

	return r.List()
}

// List returns the cached receivers sorted by name.
func (r *Registry) List() []Receiver {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Receiver, 0, len(r.receivers))
	for _, recv := range r.receivers {
		out = append(out, recv)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Host < out[j].Host
	})

	return out
}

// Lookup finds a known receiver by friendly name, UUID or host:port
// address without waiting on discovery. An empty name takes the first
// receiver found.
func (r *Registry) Lookup(name string) (Receiver, bool) {
	return r.match(name)
}

func (r *Registry) match(name string) (Receiver, bool) {
	list := r.List()
	if len(list) == 0 {
		return Receiver{}, false
	}

	if name == "" {
		return list[0], true
	}

	for _, recv := range list {
		if strings.EqualFold(recv.Name, name) || recv.UUID == name || recv.Addr() == name {
			return recv, true
		}
	}

	return Receiver{}, false
}

// Resolve waits for the named receiver to appear, polling discovery until
// the context ends. An empty name takes the first receiver found.
func (r *Registry) Resolve(ctx context.Context, name string) (Receiver, error) {
	if recv, ok := r.match(name); ok {
		return recv, nil
	}

	r.Warmup()

	ticker := time.NewTicker(pollIntervalFast)
	defer ticker.Stop()

	for {
		if recv, ok := r.match(name); ok {
			return recv, nil
		}

		select {
		case <-ctx.Done():
			return Receiver{}, fmt.Errorf("resolve %q: %w", name, ErrNoReceivers)
		case <-ticker.C:
			r.scan(queryTimeout)
		}
	}
}

// Watch keeps the registry fresh until the context ends: an adaptive
// discovery loop plus a health check dropping unreachable receivers.
func (r *Registry) Watch(ctx context.Context) {
	go r.pollLoop(ctx)
	go r.healthLoop(ctx)
}

func (r *Registry) pollLoop(ctx context.Context) {
	r.Warmup()

	pollTimer := time.NewTimer(0)
	defer pollTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pollTimer.C:
		}

		r.scan(queryTimeout)
		pollTimer.Reset(r.pollInterval())
	}
}

func (r *Registry) pollInterval() time.Duration {
	r.mu.Lock()
	hasReceivers := len(r.receivers) > 0
	r.mu.Unlock()

	if hasReceivers {
		return pollIntervalSlow
	}
	return pollIntervalFast
}

func (r *Registry) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			addrs := make([]string, 0, len(r.receivers))
			for addr := range r.receivers {
				addrs = append(addrs, addr)
			}
			r.mu.Unlock()

			// Dial outside the lock, the health probe can take seconds.
			for _, addr := range addrs {
				if iptools.HostPortIsAlive(addr) {
					continue
				}
				r.mu.Lock()
				delete(r.receivers, addr)
				r.mu.Unlock()
				r.Log().Debug().Str("Method", "healthLoop").Str("Addr", addr).Msg("Receiver dropped")
			}
		}
	}
}

// activeInterfaces returns interfaces that are up, multicast-capable, not
// loopback and carry an IPv4 address.
func activeInterfaces() []net.Interface {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var active []net.Interface
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 ||
			iface.Flags&net.FlagLoopback != 0 ||
			iface.Flags&net.FlagMulticast == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil && !ipnet.IP.IsLoopback() {
				active = append(active, iface)
				break
			}
		}
	}

	return active
}
