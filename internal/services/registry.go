// Package services resolves port numbers to service names for sweep
// result enrichment. A registry starts from a built-in table of common
// IANA assignments and can be extended from an /etc/services-format
// file. Lookups are concurrent-safe and the registry is effectively
// read-only once loaded.
package services

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/anstrom/netsweep/internal/errors"
)

// Service describes a named service bound to a port/protocol pair.
type Service struct {
	Name        string `json:"name"`
	Port        uint16 `json:"port"`
	Protocol    string `json:"protocol"`
	Description string `json:"description,omitempty"`
}

type serviceKey struct {
	port     uint16
	protocol string
}

// Registry maps port/protocol pairs to services.
type Registry struct {
	mu      sync.RWMutex
	entries map[serviceKey]Service
}

// NewRegistry returns a registry seeded with the built-in table.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[serviceKey]Service, len(builtins))}
	for _, svc := range builtins {
		r.entries[serviceKey{svc.Port, svc.Protocol}] = svc
	}
	return r
}

// ResolveService looks up the service registered for a port/protocol
// pair. An empty protocol defaults to "tcp".
func (r *Registry) ResolveService(port uint16, protocol string) (Service, bool) {
	protocol = normalizeProtocol(protocol)

	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.entries[serviceKey{port, protocol}]
	return svc, ok
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// All returns a snapshot of every registered service.
func (r *Registry) All() []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	services := make([]Service, 0, len(r.entries))
	for _, svc := range r.entries {
		services = append(services, svc)
	}
	return services
}

// LoadFile merges entries from an /etc/services-format file into the
// registry. File entries override built-ins for the same port/protocol.
func (r *Registry) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewRegistryError(errors.CodeFileNotFound, "services file not found").
				WithSource(path).WithCause(err)
		}
		if os.IsPermission(err) {
			return errors.NewRegistryError(errors.CodeFilePermission, "services file not readable").
				WithSource(path).WithCause(err)
		}
		return errors.NewRegistryError(errors.CodeRegistryParse, "opening services file").
			WithSource(path).WithCause(err)
	}
	defer file.Close()

	parsed, err := parseServicesFile(file, path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for key, svc := range parsed {
		r.entries[key] = svc
	}
	return nil
}

// parseServicesFile reads `name port/protocol [aliases...] [# comment]`
// lines, keeping the comment text as the service description. Blank
// lines and pure comment lines are ignored; a malformed port field
// fails the whole load so a bad file is not applied halfway.
func parseServicesFile(file *os.File, path string) (map[serviceKey]Service, error) {
	parsed := make(map[serviceKey]Service)
	scanner := bufio.NewScanner(file)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		var description string
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			description = strings.TrimSpace(line[idx+1:])
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, errors.NewRegistryError(errors.CodeRegistryParse, "missing port/protocol field").
				WithSource(path).WithLine(lineNo)
		}

		name := fields[0]
		portPart, protoPart, found := strings.Cut(fields[1], "/")
		if !found {
			return nil, errors.NewRegistryError(errors.CodeRegistryParse, "port field is not port/protocol").
				WithSource(path).WithLine(lineNo)
		}
		port, err := strconv.ParseUint(portPart, 10, 16)
		if err != nil || port == 0 {
			return nil, errors.NewRegistryError(errors.CodeRegistryParse, "invalid port number").
				WithSource(path).WithLine(lineNo).WithCause(err)
		}

		protocol := normalizeProtocol(protoPart)
		parsed[serviceKey{uint16(port), protocol}] = Service{
			Name:        name,
			Port:        uint16(port),
			Protocol:    protocol,
			Description: description,
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewRegistryError(errors.CodeRegistryParse, "reading services file").
			WithSource(path).WithCause(err)
	}
	return parsed, nil
}

func normalizeProtocol(protocol string) string {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	if protocol == "" {
		return "tcp"
	}
	return protocol
}
