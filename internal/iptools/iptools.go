// Package iptools picks the local address the media server binds so the
// receiver can reach it.
package iptools

import (
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// Default starting port for the media server. Taken when free, otherwise
// the next free one up from here.
const defaultStartPort = 3500

var ErrNoOutboundInterface = errors.New("no outbound interface")

// GetOutboundIP gets the preferred outbound IP of this machine.
func GetOutboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)

	return localAddr.IP.String()
}

// ListenAddr picks the ip:port the media server should bind. With a
// receiver address the interface that routes to the receiver wins,
// without one the preferred outbound interface does.
func ListenAddr(receiverAddr string) (string, error) {
	var ip string

	if receiverAddr != "" {
		conn, err := net.Dial("udp", receiverAddr)
		if err != nil {
			return "", fmt.Errorf("listenAddr UDP call error: %w", err)
		}

		ip, _, err = net.SplitHostPort(conn.LocalAddr().String())
		conn.Close()
		if err != nil {
			return "", fmt.Errorf("listenAddr local address error: %w", err)
		}
	} else {
		ip = GetOutboundIP()
		if ip == "" {
			return "", ErrNoOutboundInterface
		}
	}

	port, err := checkAndPickPort(ip, defaultStartPort)
	if err != nil {
		return "", fmt.Errorf("listenAddr port error: %w", err)
	}

	return net.JoinHostPort(ip, port), nil
}

func checkAndPickPort(ip string, port int) (string, error) {
	const maxAttempts = 1000

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		conn, err := net.Listen("tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
		if err != nil {
			if errors.Is(err, syscall.EADDRINUSE) {
				if attempt == maxAttempts {
					break
				}
				port++
				continue
			}

			return "", fmt.Errorf("port pick error: %w", err)
		}
		conn.Close()

		return strconv.Itoa(port), nil
	}

	return "", errors.New("port pick error, exceeded maximum attempts")
}

// HostPortIsAlive health checks a receiver address so stale discovery
// entries can be dropped.
func HostPortIsAlive(h string) bool {
	conn, err := net.DialTimeout("tcp", h, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()

	return true
}
