// Package discovery advertises this RAOP receiver on the local
// network via mDNS so senders can find it without static
// configuration.
package discovery

import (
	"context"
	"fmt"
	"net"

	"github.com/hashicorp/mdns"
	"github.com/sirupsen/logrus"
)

// serviceType is the standard RAOP service type senders browse for.
const serviceType = "_raop._tcp"

// Advertiser publishes an mDNS record for a RAOP receiver.
type Advertiser struct {
	name   string
	port   int
	txt    []string
	logger *logrus.Logger

	server *mdns.Server
}

// NewAdvertiser builds an Advertiser for the given instance name and
// control port.
func NewAdvertiser(name string, port int, txt []string, logger *logrus.Logger) *Advertiser {
	if logger == nil {
		logger = logrus.New()
	}
	return &Advertiser{name: name, port: port, txt: txt, logger: logger}
}

// Start publishes the mDNS record. Call Stop to withdraw it.
func (a *Advertiser) Start() error {
	ips, err := localIPv4Addrs()
	if err != nil {
		return fmt.Errorf("discovery: enumerate local addresses: %w", err)
	}

	service, err := mdns.NewMDNSService(a.name, serviceType, "", "", a.port, ips, a.txt)
	if err != nil {
		return fmt.Errorf("discovery: create mdns service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("discovery: start mdns server: %w", err)
	}
	a.server = server

	a.logger.WithFields(logrus.Fields{
		"name": a.name,
		"port": a.port,
	}).Info("advertising RAOP service")
	return nil
}

// Stop withdraws the mDNS record.
func (a *Advertiser) Stop() error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown()
}

// Run starts the advertiser and withdraws it when ctx is done.
func (a *Advertiser) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		if err := a.Stop(); err != nil {
			a.logger.WithError(err).Warn("failed to withdraw mdns record")
		}
	}()
	return nil
}

func localIPv4Addrs() ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.IsLoopback() {
				continue
			}
			if v4 := ipnet.IP.To4(); v4 != nil {
				ips = append(ips, v4)
			}
		}
	}
	return ips, nil
}
