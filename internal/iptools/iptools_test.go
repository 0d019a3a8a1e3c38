package iptools

import (
	"net"
	"strconv"
	"testing"
)

func TestListenAddr(t *testing.T) {
	tt := []struct {
		name         string
		receiver     string
		wantFromPort int
		wantToPort   int
	}{
		{"receiver with port", "192.168.88.244:8009", 3500, 4500},
		{"another subnet", "192.168.2.211:8009", 3500, 4500},
		{"no receiver", "", 3500, 4500},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			out, err := ListenAddr(tc.receiver)
			if err != nil {
				t.Fatalf("ListenAddr(%q) failed: %v", tc.receiver, err)
			}

			_, portStr, err := net.SplitHostPort(out)
			if err != nil {
				t.Fatalf("not in ip:port format: %q", out)
			}

			port, _ := strconv.Atoi(portStr)
			if port < tc.wantFromPort || port > tc.wantToPort {
				t.Fatalf("got %s, wanted port between %d and %d", out, tc.wantFromPort, tc.wantToPort)
			}
		})
	}
}

func TestListenAddrRejectsBadReceiver(t *testing.T) {
	if _, err := ListenAddr("no-port-here"); err == nil {
		t.Fatal("expected an error for a receiver address without a port")
	}
}

func TestCheckAndPickPortSkipsBusyPort(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()

	_, busyPortStr, _ := net.SplitHostPort(busy.Addr().String())
	busyPort, _ := strconv.Atoi(busyPortStr)

	got, err := checkAndPickPort("127.0.0.1", busyPort)
	if err != nil {
		t.Fatalf("checkAndPickPort failed: %v", err)
	}
	if got == busyPortStr {
		t.Fatalf("picked the busy port %s", got)
	}
	if gotPort, _ := strconv.Atoi(got); gotPort <= busyPort {
		t.Fatalf("got port %s, want one above %d", got, busyPort)
	}
}
