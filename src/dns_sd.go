package ax25

/*------------------------------------------------------------------
 *
 * Purpose:   	Find a KISS over TCP service using DNS-SD
 *
 * Description:
 *
 *     Most people have typed in enough IP addresses and ports by now, and
 *     would rather just select an available TNC that is automatically
 *     discovered on the local network.  Dire Wolf and Samoyed announce
 *     their KISS TCP port as _kiss-tnc._tcp; this is the other end.
 *
 *     This uses the pure-Go github.com/brutella/dnssd package for
 *     cross-platform mDNS/DNS-SD browsing without requiring
 *     any system daemon or C library dependencies.
 */

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brutella/dnssd"
)

const DNS_SD_SERVICE = "_kiss-tnc._tcp"

type DiscoveredTNC struct {
	Name string
	Host string
	Port int
}

func tncFromEntry(e dnssd.BrowseEntry) DiscoveredTNC {
	var host = strings.TrimSuffix(e.Host, ".")

	// Prefer an address over a .local name which the resolver may not know.
	for _, ip := range e.IPs {
		if ip.To4() != nil {
			host = ip.String()
			break
		}
	}

	if host == "" && len(e.IPs) > 0 {
		host = e.IPs[0].String()
	}

	return DiscoveredTNC{Name: e.Name, Host: host, Port: e.Port}
}

/*-------------------------------------------------------------------
 *
 * Name:        DiscoverKISSTNC
 *
 * Purpose:     Wait for the first KISS TNC announced on the local network.
 *
 * Inputs:	timeout	- Give up after this long.
 *
 *--------------------------------------------------------------------*/

func DiscoverKISSTNC(ctx context.Context, timeout time.Duration) (DiscoveredTNC, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var found = make(chan DiscoveredTNC, 1)
	var lookupErr = make(chan error, 1)

	var add = func(e dnssd.BrowseEntry) {
		logger.Debug("DNS-SD: found", "name", e.Name, "host", e.Host, "port", e.Port)

		select {
		case found <- tncFromEntry(e):
		default:
		}
	}
	var rmv = func(dnssd.BrowseEntry) {}

	go func() {
		lookupErr <- dnssd.LookupType(ctx, DNS_SD_SERVICE+".local.", add, rmv)
	}()

	logger.Info("DNS-SD: Looking for KISS TNC", "service", DNS_SD_SERVICE, "timeout", timeout)

	select {
	case tnc := <-found:
		return tnc, nil
	case err := <-lookupErr:
		if ctx.Err() == nil && err != nil {
			return DiscoveredTNC{}, fmt.Errorf("DNS-SD: %w", err)
		}
	case <-ctx.Done():
	}

	return DiscoveredTNC{}, fmt.Errorf("DNS-SD: no %s service found within %s", DNS_SD_SERVICE, timeout)
}
