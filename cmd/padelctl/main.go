// Command padelctl books padel courts from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/corepadel/internal/auth"
	"github.com/mmynk/corepadel/internal/client"
	"github.com/mmynk/corepadel/pkg/logging"
)

const defaultServer = "http://localhost:8080"

// app carries what every subcommand needs.
type app struct {
	client      *client.Client
	sessionPath string
	out         io.Writer
	loc         *time.Location
	windowDays  int
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"register", "register -email E -password P -name N", cmdRegister},
	{"login", "login -email E -password P", cmdLogin},
	{"logout", "logout", cmdLogout},
	{"me", "me", cmdMe},
	{"courts", "courts", cmdCourts},
	{"slots", "slots -court ID [-date YYYY-MM-DD]", cmdSlots},
	{"book", "book -court ID -date YYYY-MM-DD -time HH:MM [-payment full|split]", cmdBook},
	{"show", "show TOKEN", cmdShow},
	{"join", "join TOKEN", cmdJoin},
	{"cancel", "cancel BOOKING_ID", cmdCancel},
	{"bookings", "bookings", cmdBookings},
	{"profile", "profile [-name N -phone P]", cmdProfile},
}

func main() {
	logging.Setup()
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "padelctl:", describe(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("padelctl", flag.ContinueOnError)
	server := global.String("server", envOr("PADEL_SERVER", defaultServer), "server base URL")
	sessionPath := global.String("session", envOr("PADEL_SESSION", defaultSessionPath()), "session file")
	tz := global.String("tz", envOr("CLUB_TIMEZONE", "Europe/Madrid"), "club time zone")
	window := global.Int("window", defaultWindow(), "bookable days including today, as the server's BOOKING_WINDOW_DAYS")
	global.Usage = func() { usage(global.Output()) }
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		usage(global.Output())
		return errors.New("missing command")
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return fmt.Errorf("invalid time zone %q: %w", *tz, err)
	}
	if *window < 1 {
		return fmt.Errorf("invalid -window %d: must be at least 1", *window)
	}

	name := global.Arg(0)
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		usage(global.Output())
		return fmt.Errorf("unknown command %q", name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{
		client:      client.New(http.DefaultClient, strings.TrimRight(*server, "/")),
		sessionPath: *sessionPath,
		out:         os.Stdout,
		loc:         loc,
		windowDays:  *window,
	}
	return cmd.run(ctx, a, global.Args()[1:])
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: padelctl [-server URL] [-session FILE] [-tz ZONE] [-window DAYS] <command> [args]")
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintln(w, "  "+c.usage)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// defaultWindow reads BOOKING_WINDOW_DAYS like the server does, falling back
// to a week.
func defaultWindow() int {
	if n, err := strconv.Atoi(os.Getenv("BOOKING_WINDOW_DAYS")); err == nil && n > 0 {
		return n
	}
	return 7
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".padelctl-session.json"
	}
	return filepath.Join(dir, "padelctl", "session.json")
}

// session loads the saved session. Commands that need one fail with
// client.ErrNoSession when it is missing or expired.
func (a *app) session() (*client.Session, error) {
	s, err := client.LoadSession(a.sessionPath)
	if err != nil {
		return nil, err
	}
	if !s.Valid(time.Now()) {
		return nil, client.ErrNoSession
	}
	return s, nil
}

// describe turns errors into the messages shown to the user.
func describe(err error) string {
	var fe auth.FieldErrors
	if errors.As(err, &fe) {
		return fe.Error()
	}
	if errors.Is(err, client.ErrNoSession) {
		return "not signed in; run padelctl login"
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce.Message()
	}
	return err.Error()
}
