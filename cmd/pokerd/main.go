// Command pokerd runs the multi-room poker server: one required
// positional TCP port and an optional dotted-quad bind address.
package main

import (
	"fmt"
	"math/rand"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"voyager.com/pokerd/internal/config"
	"voyager.com/pokerd/internal/lobby"
	"voyager.com/pokerd/internal/logging"
	"voyager.com/pokerd/internal/room"
)

var mainLogger = logging.GetLogger("main::main", nil)

// roomCatalog is the static list of rooms the server offers. A fixed
// in-memory catalog is all that's needed since rooms are never created
// or destroyed at runtime.
var roomCatalog = []struct {
	id   int
	name string
}{
	{1, "Table One"},
	{2, "Table Two"},
	{3, "Table Three"},
}

func main() {
	logging.SetGlobalLevel(config.Env.GetLogLevel())
	if err := run(os.Args[1:]); err != nil {
		mainLogger.Error().Msg(err.Error())
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: pokerd <port> [bind-address]")
	}
	port, err := strconv.Atoi(args[0])
	if err != nil || port < 0 || port > 65535 {
		return errors.Errorf("invalid port %q: must be 0..65535", args[0])
	}

	bindAddr := ""
	if len(args) >= 2 {
		if ip := net.ParseIP(args[1]); ip == nil || ip.To4() == nil || strings.Contains(args[1], ":") {
			return errors.Errorf("invalid bind address %q: must be dotted-quad IPv4", args[1])
		}
		bindAddr = args[1]
	}

	addr := fmt.Sprintf("%s:%d", bindAddr, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "binding to %s", addr)
	}
	defer ln.Close()

	tun := config.DefaultTunables()
	rooms := make([]*room.Room, 0, len(roomCatalog))
	for i, rc := range roomCatalog {
		seed := rand.NewSource(int64(rc.id)*7919 + int64(i))
		rooms = append(rooms, room.New(rc.id, rc.name, tun, seed))
	}

	l := lobby.New(rooms, tun)

	stop := make(chan struct{})
	for _, r := range rooms {
		go r.Run(stop)
	}
	go l.Run(stop)

	mainLogger.Info().Str("addr", ln.Addr().String()).Int("rooms", len(rooms)).Msg("pokerd listening")
	l.Accept(ln, stop)
	return nil
}
