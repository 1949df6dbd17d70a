package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mmynk/corepadel/internal/client"
	"github.com/mmynk/corepadel/internal/models"
	"github.com/mmynk/corepadel/internal/schedule"
	"github.com/mmynk/corepadel/internal/wizard"
	"github.com/mmynk/corepadel/pkg/api"
)

func parseFlags(name string, args []string, define func(fs *flag.FlagSet)) (*flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	define(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs, nil
}

func oneArg(name string, args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("%s takes exactly one argument", name)
	}
	return args[0], nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	var email, password, name string
	if _, err := parseFlags("register", args, func(fs *flag.FlagSet) {
		fs.StringVar(&email, "email", "", "email address")
		fs.StringVar(&password, "password", "", "password")
		fs.StringVar(&name, "name", "", "display name")
	}); err != nil {
		return err
	}
	s, err := a.client.SignUp(ctx, email, password, name)
	if err != nil {
		return err
	}
	if err := s.Save(a.sessionPath); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s. You are signed in.\n", s.DisplayName)
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	var email, password string
	if _, err := parseFlags("login", args, func(fs *flag.FlagSet) {
		fs.StringVar(&email, "email", "", "email address")
		fs.StringVar(&password, "password", "", "password")
	}); err != nil {
		return err
	}
	s, err := a.client.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	if err := s.Save(a.sessionPath); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s.\n", s.Email)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	s, err := a.session()
	if err == nil {
		// The local file goes regardless of what the server says.
		if err := a.client.SignOut(ctx, s); err != nil {
			fmt.Fprintln(a.out, "warning: server sign-out failed:", describe(err))
		}
	}
	if err := client.RemoveSession(a.sessionPath); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func cmdMe(ctx context.Context, a *app, _ []string) error {
	s, err := a.session()
	if err != nil {
		return err
	}
	u, err := a.client.CurrentUser(ctx, s)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s>\n", u.DisplayName, u.Email)
	return nil
}

func cmdCourts(ctx context.Context, a *app, _ []string) error {
	courts, err := a.client.ListCourts(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSURFACE\tPRICE\tPER PLAYER")
	for _, c := range courts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Surface, c.PriceLabel, c.PlayerShareLabel)
	}
	return tw.Flush()
}

func cmdSlots(ctx context.Context, a *app, args []string) error {
	var courtID int64
	var date string
	if _, err := parseFlags("slots", args, func(fs *flag.FlagSet) {
		fs.Int64Var(&courtID, "court", 0, "court id")
		fs.StringVar(&date, "date", "", "date (default today)")
	}); err != nil {
		return err
	}
	if courtID == 0 {
		return errors.New("slots needs -court")
	}
	av, err := a.client.Availability(ctx, courtID, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Court %d on %s\n", av.CourtID, av.Date)
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, s := range av.Slots {
		state := "free"
		if !s.Available {
			state = "taken"
		}
		fmt.Fprintf(tw, "%s-%s\t%s\n", s.Start, s.End, state)
	}
	return tw.Flush()
}

// cmdBook walks the booking wizard with the answers given as flags and
// submits from the confirmation step.
func cmdBook(ctx context.Context, a *app, args []string) error {
	var (
		courtID int64
		date    string
		start   string
		payment string
	)
	if _, err := parseFlags("book", args, func(fs *flag.FlagSet) {
		fs.Int64Var(&courtID, "court", 0, "court id")
		fs.StringVar(&date, "date", "", "date (default today)")
		fs.StringVar(&start, "time", "", "start time HH:MM")
		fs.StringVar(&payment, "payment", string(models.PaymentFull), "full or split")
	}); err != nil {
		return err
	}
	s, err := a.session()
	if err != nil {
		return err
	}
	slot, err := schedule.ParseSlot(start)
	if err != nil {
		return fmt.Errorf("invalid -time %q", start)
	}

	courts, err := a.client.ListCourts(ctx)
	if err != nil {
		return err
	}
	w := a.wizard(s, courts)

	if date != "" {
		if err := w.SelectDate(date); err != nil {
			return fmt.Errorf("date %s: %w (bookable: %s)", date, err, strings.Join(w.Window(), ", "))
		}
	}
	if err := w.SelectCourt(courtID); err != nil {
		return err
	}
	if err := w.Refresh(ctx); err != nil {
		return err
	}
	if err := w.SelectTime(slot); err != nil {
		if errors.Is(err, wizard.ErrSlotUnavailable) {
			return fmt.Errorf("%s is not available; free starts: %s", slot, freeStarts(w.State()))
		}
		return err
	}
	if err := w.ChoosePayment(models.PaymentType(payment)); err != nil {
		return err
	}

	v := w.State()
	fmt.Fprintf(a.out, "%s, %s %s-%s, %s\n", v.Court.Name, v.Date, v.Start, v.Start.End(), v.PriceLabel())

	conf, err := w.Submit(ctx)
	if errors.Is(err, wizard.ErrSlotTaken) {
		return fmt.Errorf("someone just took %s; free starts: %s", slot, freeStarts(w.State()))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booked. Booking %s\nShare with your players: %s\n", conf.BookingID, conf.ShareURL)
	return nil
}

// wizard builds a booking wizard that follows the club's time zone and
// booking window.
func (a *app) wizard(s *client.Session, courts []*api.Court) *wizard.Wizard {
	return wizard.New(client.NewWizardBackend(a.client, s), wizard.Config{
		Courts:     client.Courts(courts),
		Location:   a.loc,
		WindowDays: a.windowDays,
	})
}

func freeStarts(v wizard.View) string {
	var free []string
	for _, st := range v.Slots {
		if st.Available {
			free = append(free, st.Start.String())
		}
	}
	if len(free) == 0 {
		return "none"
	}
	return strings.Join(free, " ")
}

func cmdShow(ctx context.Context, a *app, args []string) error {
	token, err := oneArg("show", args)
	if err != nil {
		return err
	}
	// Anonymous viewing is allowed; a session only adds the join hints.
	s, _ := a.session()
	res, err := a.client.GetBooking(ctx, s, token)
	if err != nil {
		return err
	}
	printBooking(a, res.Booking)
	printParticipants(a, res.Participants)
	fmt.Fprintf(a.out, "Spots left: %d\n", res.SpotsLeft)
	switch {
	case res.IsParticipant:
		fmt.Fprintln(a.out, "You are playing in this match.")
	case res.CanJoin:
		fmt.Fprintf(a.out, "Join with: padelctl join %s\n", token)
	}
	return nil
}

func cmdJoin(ctx context.Context, a *app, args []string) error {
	token, err := oneArg("join", args)
	if err != nil {
		return err
	}
	s, err := a.session()
	if err != nil {
		return err
	}
	res, err := a.client.JoinBooking(ctx, s, token)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "You joined the match.")
	printBooking(a, res.Booking)
	printParticipants(a, res.Participants)
	return nil
}

func cmdCancel(ctx context.Context, a *app, args []string) error {
	id, err := oneArg("cancel", args)
	if err != nil {
		return err
	}
	s, err := a.session()
	if err != nil {
		return err
	}
	b, err := a.client.CancelBooking(ctx, s, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booking %s is %s.\n", b.ID, b.Status)
	return nil
}

func cmdBookings(ctx context.Context, a *app, _ []string) error {
	s, err := a.session()
	if err != nil {
		return err
	}
	bookings, err := a.client.ListMyBookings(ctx, s)
	if err != nil {
		return err
	}
	if len(bookings) == 0 {
		fmt.Fprintln(a.out, "No bookings yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOURT\tDATE\tTIME\tSTATUS\tROLE")
	for _, b := range bookings {
		role := "player"
		if b.OwnerID == s.UserID {
			role = "owner"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s-%s\t%s\t%s\n", b.ID, courtName(b), b.Date, b.StartTime, b.EndTime, b.Status, role)
	}
	return tw.Flush()
}

func cmdProfile(ctx context.Context, a *app, args []string) error {
	var name, phone string
	fs, err := parseFlags("profile", args, func(fs *flag.FlagSet) {
		fs.StringVar(&name, "name", "", "full name")
		fs.StringVar(&phone, "phone", "", "phone number")
	})
	if err != nil {
		return err
	}
	s, err := a.session()
	if err != nil {
		return err
	}

	updating := false
	fs.Visit(func(*flag.Flag) { updating = true })
	if updating {
		if _, err := a.client.UpdateProfile(ctx, s, name, phone); err != nil {
			return err
		}
	}

	res, err := a.client.GetProfile(ctx, s)
	if err != nil {
		return err
	}
	p, st := res.Profile, res.Stats
	fmt.Fprintf(a.out, "%s <%s>\n", orDash(p.FullName), p.Email)
	fmt.Fprintf(a.out, "Phone: %s\n", orDash(p.Phone))
	fmt.Fprintf(a.out, "Matches: %d (%d indoor, %d outdoor), %d upcoming, %d played\n",
		st.Total, st.Indoor, st.Outdoor, st.Upcoming, st.Past)
	for _, b := range res.Upcoming {
		fmt.Fprintf(a.out, "  upcoming: %s, %s %s-%s\n", courtName(b), b.Date, b.StartTime, b.EndTime)
	}
	return nil
}

func printBooking(a *app, b *api.Booking) {
	fmt.Fprintf(a.out, "%s, %s %s-%s (%d min)\n", courtName(b), b.Date, b.StartTime, b.EndTime, b.DurationMinutes)
	fmt.Fprintf(a.out, "Status: %s, payment: %s (%s)\n", b.Status, b.PaymentType, b.PaymentStatus)
}

func printParticipants(a *app, ps []*api.Participant) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tROLE\tPAYMENT\tJOINED")
	for _, p := range ps {
		joined := time.Unix(p.JoinedAt, 0).In(a.loc).Format("2006-01-02 15:04")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.DisplayName, p.Role, p.PaymentStatus, joined)
	}
	tw.Flush()
}

func courtName(b *api.Booking) string {
	if b.Court != nil {
		return b.Court.Name
	}
	return "Court " + strconv.FormatInt(b.CourtID, 10)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
