// Package bot turns chat commands into session operations. It renders the
// replies for the caller and hands every other outbound message to the
// notify dispatcher, always after the session lock has been released.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"golang.org/x/text/message"

	"mafiabot/internal/game"
	"mafiabot/internal/messages"
	"mafiabot/internal/notify"
)

// Command names understood by Handle
const (
	CmdJoin        = "join"
	CmdStartGame   = "startgame"
	CmdStopGame    = "stopgame"
	CmdSendNumbers = "sendnumbers"
	CmdText        = "text"
	CmdSendRole    = "send_role"
)

// ErrUnknownCommand is returned by Handle for command names it does not route
var ErrUnknownCommand = errors.New("unknown command")

const roleCallbackPrefix = CmdSendRole + ":"

// Caller identifies who issued a command
type Caller struct {
	ID     game.PlayerID `json:"userId"`
	Handle string        `json:"handle"`
}

// Command is one inbound event from a transport
type Command struct {
	Name   string        `json:"-"`
	Caller Caller        `json:"caller"`
	Text   string        `json:"text,omitempty"`
	Target game.PlayerID `json:"target,omitempty"`
	// Original is the text of the message a callback button belongs to
	Original string `json:"original,omitempty"`
}

// Button is an inline action attached to a reply
type Button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// Reply is a message for the caller
type Reply struct {
	Text   string  `json:"text"`
	Button *Button `json:"button,omitempty"`
}

// Response is what a transport should show the caller
type Response struct {
	Replies []Reply `json:"replies,omitempty"`
	// Edit replaces the message whose button triggered the command
	Edit *Reply `json:"edit,omitempty"`
}

func (r *Response) add(text string) {
	r.Replies = append(r.Replies, Reply{Text: text})
}

// Service routes commands to the session
type Service struct {
	session    *game.Session
	dispatcher *notify.Dispatcher
	printer    *message.Printer
}

// New creates a service
func New(session *game.Session, dispatcher *notify.Dispatcher, printer *message.Printer) *Service {
	return &Service{
		session:    session,
		dispatcher: dispatcher,
		printer:    printer,
	}
}

// Session returns the underlying session
func (s *Service) Session() *game.Session {
	return s.session
}

// Handle routes cmd by name
func (s *Service) Handle(ctx context.Context, cmd Command) (Response, error) {
	switch cmd.Name {
	case CmdJoin:
		return s.Join(ctx, cmd.Caller), nil
	case CmdStartGame:
		return s.StartGame(ctx, cmd.Caller), nil
	case CmdStopGame:
		return s.StopGame(ctx, cmd.Caller), nil
	case CmdSendNumbers:
		return s.SendNumbers(ctx, cmd.Caller), nil
	case CmdText:
		return s.Text(ctx, cmd.Caller, cmd.Text), nil
	case CmdSendRole:
		return s.DeliverRole(ctx, cmd.Caller, cmd.Target, cmd.Original), nil
	default:
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}
}

// Join registers the caller, or makes them host if they hold the host handle
func (s *Service) Join(ctx context.Context, c Caller) Response {
	var resp Response

	result, err := s.session.Join(c.ID, c.Handle)
	switch {
	case errors.Is(err, game.ErrGameAlreadyStarted):
		resp.add(s.printer.Sprintf(messages.JoinAlreadyStarted))
		return resp
	case errors.Is(err, game.ErrHostAlreadySet):
		resp.add(s.printer.Sprintf(messages.JoinHostTaken))
		return resp
	case err != nil:
		log.Printf("bot: join %d: %v", c.ID, err)
		return resp
	}

	switch result {
	case game.JoinedAsHost:
		log.Printf("bot: host %d (@%s) joined", c.ID, c.Handle)
		resp.add(s.printer.Sprintf(messages.JoinHost, s.Roster()))
		resp.add(s.printer.Sprintf(messages.JoinHostHint))
	case game.JoinedAsPlayer:
		log.Printf("bot: player %d (@%s) joined", c.ID, c.Handle)
		resp.add(s.printer.Sprintf(messages.JoinPlayer))
	case game.AlreadyJoined:
		resp.add(s.printer.Sprintf(messages.JoinAgain))
	}
	return resp
}

// Text treats free text as the caller's display name
func (s *Service) Text(ctx context.Context, c Caller, text string) Response {
	var resp Response

	notices, err := s.session.ProvideName(c.ID, text)
	switch {
	case errors.Is(err, game.ErrNotJoined):
		resp.add(s.printer.Sprintf(messages.NameNotJoined))
		return resp
	case errors.Is(err, game.ErrNameAlreadySet):
		resp.add(s.printer.Sprintf(messages.NameAlreadySet))
		return resp
	case errors.Is(err, game.ErrEmptyName):
		resp.add(s.printer.Sprintf(messages.NameEmpty))
		return resp
	case err != nil:
		log.Printf("bot: name for %d: %v", c.ID, err)
		return resp
	}

	resp.add(s.printer.Sprintf(messages.NameSaved))
	// the host announcement is best effort; a failure is only logged
	s.dispatcher.Deliver(ctx, s.render(notices))
	return resp
}

// StartGame deals the round and shows the host one line per player with
// a button that reveals that player's role to them.
func (s *Service) StartGame(ctx context.Context, c Caller) Response {
	var resp Response

	snap, err := s.session.StartGame(c.ID)
	switch {
	case errors.Is(err, game.ErrNotHost):
		resp.add(s.printer.Sprintf(messages.StartNotHost))
		return resp
	case errors.Is(err, game.ErrAlreadyStarted):
		resp.add(s.printer.Sprintf(messages.StartAlready))
		return resp
	case errors.Is(err, game.ErrNotEnoughPlayers):
		resp.add(s.printer.Sprintf(messages.StartNotEnough))
		return resp
	case err != nil:
		log.Printf("bot: start game: %v", err)
		resp.add(s.printer.Sprintf(messages.StartFailed, err))
		return resp
	}

	log.Printf("bot: round %s started with %d players", snap.RoundID, len(snap.Players))
	for _, e := range snap.Players {
		resp.Replies = append(resp.Replies, Reply{
			Text: s.printer.Sprintf(messages.StartRosterLine, e.Seat, s.displayName(e.Player), e.Player.Handle, string(e.Role)),
			Button: &Button{
				Text: s.printer.Sprintf(messages.ButtonSendRole),
				Data: RoleCallbackData(e.Player.ID),
			},
		})
	}
	resp.add(s.printer.Sprintf(messages.StartDone))
	return resp
}

// DeliverRole sends target their role. The outcome replaces the roster
// line the button belonged to.
func (s *Service) DeliverRole(ctx context.Context, c Caller, target game.PlayerID, original string) Response {
	var resp Response

	notice, err := s.session.RoleFor(c.ID, target)
	switch {
	case errors.Is(err, game.ErrNotHost):
		resp.add(s.printer.Sprintf(messages.HostOnly))
		return resp
	case errors.Is(err, game.ErrNotStarted):
		resp.add(s.printer.Sprintf(messages.RoleNotStarted))
		return resp
	case errors.Is(err, game.ErrUnknownPlayer):
		resp.add(s.printer.Sprintf(messages.RoleUnknown))
		return resp
	case err != nil:
		log.Printf("bot: role for %d: %v", target, err)
		return resp
	}

	msgs := s.render([]game.Notice{notice})
	if err := s.dispatcher.DeliverOne(ctx, msgs[0]); err != nil {
		resp.Edit = &Reply{Text: s.printer.Sprintf(messages.RoleFailed, unwrapDelivery(err))}
		return resp
	}
	resp.Edit = &Reply{Text: s.printer.Sprintf(messages.RoleSent, original)}
	return resp
}

// SendNumbers tells every player their seat. Each failed recipient is
// reported to the host separately.
func (s *Service) SendNumbers(ctx context.Context, c Caller) Response {
	var resp Response

	notices, err := s.session.NumberNotices(c.ID)
	switch {
	case errors.Is(err, game.ErrNotHost):
		resp.add(s.printer.Sprintf(messages.HostOnly))
		return resp
	case errors.Is(err, game.ErrNumbersNotReady):
		resp.add(s.printer.Sprintf(messages.NumbersNotReady))
		return resp
	case err != nil:
		log.Printf("bot: send numbers: %v", err)
		return resp
	}

	report := s.dispatcher.Deliver(ctx, s.render(notices))
	for i, res := range report.Results {
		if res.Err == nil {
			continue
		}
		resp.add(s.printer.Sprintf(messages.NumbersFailed, s.label(notices[i].Player), unwrapDelivery(res.Err)))
	}
	resp.add(s.printer.Sprintf(messages.NumbersDone))
	return resp
}

// StopGame says goodbye to every player and resets the session
func (s *Service) StopGame(ctx context.Context, c Caller) Response {
	var resp Response

	notices, err := s.session.Stop(c.ID)
	switch {
	case errors.Is(err, game.ErrNotHost):
		resp.add(s.printer.Sprintf(messages.StopNotHost))
		return resp
	case err != nil:
		log.Printf("bot: stop game: %v", err)
		return resp
	}

	log.Printf("bot: game stopped by %d, %d players released", c.ID, len(notices))
	// farewells are best effort
	s.dispatcher.Deliver(ctx, s.render(notices))
	resp.add(s.printer.Sprintf(messages.StopDone))
	return resp
}

// Roster formats the current players for the host
func (s *Service) Roster() string {
	snap := s.session.Snapshot()
	if len(snap.Players) == 0 {
		return s.printer.Sprintf(messages.RosterEmpty)
	}
	lines := make([]string, 0, len(snap.Players))
	for _, e := range snap.Players {
		lines = append(lines, s.printer.Sprintf(messages.RosterLine, s.displayName(e.Player), e.Player.Handle))
	}
	return strings.Join(lines, "\n")
}

func (s *Service) render(notices []game.Notice) []notify.Message {
	msgs := make([]notify.Message, 0, len(notices))
	for _, n := range notices {
		var text string
		switch n.Kind {
		case game.NoticePlayerNamed:
			text = s.printer.Sprintf(messages.NameHostNotice, n.Player.DisplayName, n.Player.Handle)
		case game.NoticeRole:
			text = s.printer.Sprintf(messages.RoleNotice, string(n.Role))
		case game.NoticeSeat:
			text = s.printer.Sprintf(messages.NumbersNotice, n.Seat)
		case game.NoticeFarewell:
			text = s.printer.Sprintf(messages.StopFarewell)
		}
		msgs = append(msgs, notify.Message{
			Recipient: int64(n.Recipient),
			Text:      text,
			Kind:      string(n.Kind),
		})
	}
	return msgs
}

func (s *Service) displayName(p game.Player) string {
	if p.HasName() {
		return p.DisplayName
	}
	return s.printer.Sprintf(messages.RosterNoName)
}

// label names a player for the host, e.g. "Олена @olena (42)"
func (s *Service) label(p game.Player) string {
	return s.displayName(p) + " @" + p.Handle + " (" + strconv.FormatInt(int64(p.ID), 10) + ")"
}

func unwrapDelivery(err error) error {
	var derr *notify.DeliveryError
	if errors.As(err, &derr) {
		return derr.Err
	}
	return err
}

// RoleCallbackData encodes the payload of a "send role" button
func RoleCallbackData(id game.PlayerID) string {
	return roleCallbackPrefix + strconv.FormatInt(int64(id), 10)
}

// ParseRoleCallback decodes a payload made by RoleCallbackData
func ParseRoleCallback(data string) (game.PlayerID, bool) {
	raw, ok := strings.CutPrefix(data, roleCallbackPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return game.PlayerID(id), true
}
