// Command gamba-client is a terminal client for the game server. By default
// it runs interactively; with --bot it joins a room and plays by itself,
// which is handy for exercising a server with traffic.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/cyberinferno/gamba-server/gameclient"
	"github.com/cyberinferno/gamba-server/internal/game"
	"github.com/cyberinferno/gamba-server/internal/protocol"
	"github.com/cyberinferno/gamba-server/safeset"
	"github.com/cyberinferno/gamba-server/utils"
)

var (
	infoColor   = color.New(color.FgCyan)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed)
	promptColor = color.New(color.FgWhite, color.Bold)
)

func main() {
	var (
		addr         string
		name         string
		bot          bool
		pingInterval time.Duration
	)

	flag.StringVar(&addr, "addr", "127.0.0.1:8080", "server address")
	flag.StringVar(&name, "name", "", "player name (default player_<random>)")
	flag.BoolVar(&bot, "bot", false, "play automatically")
	flag.DurationVar(&pingInterval, "ping-interval", 15*time.Second, "heartbeat period")
	flag.Parse()

	if name == "" {
		name = "player_" + utils.GenerateRandomString(6)
	}

	cfg := gameclient.DefaultConfig(addr)
	cfg.AutoReconnect = bot
	cfg.ReconnectInterval = 2 * time.Second

	client := gameclient.New(cfg)
	defer client.Close()

	client.OnError(func(ev gameclient.ErrorEvent) {
		errColor.Fprintf(os.Stderr, "! %v\n", ev.Error)
	})
	client.OnState(func(ev gameclient.StateEvent) {
		warnColor.Printf("* connection %s (%s)\n", ev.State, ev.Address)
	})

	app := &session{client: client, name: name, bot: bot, hand: safeset.NewSafeSet[string]()}
	client.OnFrame(app.onFrame)

	if err := client.Connect(); err != nil {
		errColor.Fprintf(os.Stderr, "connect failed: %v\n", err)
		os.Exit(1)
	}

	if err := client.Login(name); err != nil {
		errColor.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	go heartbeat(client, pingInterval)

	if bot {
		okColor.Printf("bot %s running against %s\n", name, addr)
		select {}
	}

	repl(app)
}

// heartbeat keeps the server's liveness clock fresh.
func heartbeat(client *gameclient.Client, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if client.IsConnected() {
			_ = client.Ping()
		}
	}
}

// session reacts to server frames, either by printing them or, in bot mode,
// by answering with the next move.
type session struct {
	client *gameclient.Client
	name   string
	bot    bool
	hand   *safeset.SafeSet[string]
}

func (s *session) onFrame(ev gameclient.FrameEvent) {
	m := ev.Message

	switch m.Type {
	case protocol.TypeConnected:
		okColor.Printf("connected as %s\n", m.Get("name"))
		if s.bot {
			_ = s.client.JoinRoom()
		}

	case protocol.TypeRoomJoined:
		if m.Has("broadcast_type") {
			infoColor.Printf("%s joined %s\n", m.Get("joined_player"), m.Room)
		} else {
			okColor.Printf("joined %s (%s, full=%s)\n", m.Room, m.Get("players"),
				utils.BoolToYesNo(m.Get("room_full") == "true"))
		}

		// The seat that completed the room kicks the game off.
		if s.bot && !m.Has("broadcast_type") && m.Get("room_full") == "true" {
			_ = s.client.StartGame()
		}

	case protocol.TypeRoomLeft:
		if m.Has("left_player") {
			infoColor.Printf("%s left the room\n", m.Get("left_player"))
		} else {
			infoColor.Println("left the room")
		}

	case protocol.TypeGameStarted:
		okColor.Printf("game on (room %s)\n", m.Room)

	case protocol.TypeGameState:
		s.rememberHand(m.Get("hand"))
		s.printState(m)
		if s.bot && m.Get("your_turn") == "true" {
			s.autoPlay(m)
		}

	case protocol.TypeTurnResult:
		infoColor.Printf("turn: %s\n", m.Get("result"))

	case protocol.TypePlayerDisconnected:
		warnColor.Printf("%s disconnected (%s)\n", m.Get("disconnected_player"), m.Get("status"))

	case protocol.TypePlayerReconnected:
		okColor.Printf("%s reconnected\n", m.Get("reconnected_player"))

	case protocol.TypeGameOver:
		winner := m.Get("winner")
		if winner == s.name {
			okColor.Println("you win!")
		} else {
			warnColor.Printf("game over, %s wins (%s)\n", winner, m.Get("reason"))
		}

		if s.bot {
			// Back to the lobby queue for the next match.
			time.Sleep(time.Second)
			_ = s.client.JoinRoom()
		}

	case protocol.TypePong:
		// Quiet; the heartbeat is bookkeeping, not news.

	case protocol.TypeError:
		errColor.Printf("server: %s\n", m.Get("error"))

	default:
		infoColor.Printf("<- %s\n", protocol.TypeName(m.Type))
	}
}

func (s *session) rememberHand(field string) {
	s.hand.Reset()
	if field == "" {
		return
	}

	for _, code := range strings.Split(field, ",") {
		s.hand.Add(code)
	}
}

func (s *session) printState(m *protocol.Message) {
	infoColor.Printf("hand=[%s] top=%s deck=%s reserves=%s opp_hand=%s opp_reserves=%s low=%s turn=%s\n",
		m.Get("hand"), m.Get("top_card"), m.Get("deck_size"), m.Get("reserves"),
		m.Get("opponent_hand"), m.Get("opponent_reserves"),
		m.Get("must_play_low"), m.Get("current_player"))
}

// autoPlay picks a random legal card from the tracked hand; an empty hand
// plays blind from the reserves and a hand with no legal card picks the pile
// up.
func (s *session) autoPlay(m *protocol.Message) {
	if s.hand.Size() == 0 {
		_ = s.client.PlayReserve()
		return
	}

	var top game.Card
	topPresent := false
	if code := m.Get("top_card"); code != protocol.EmptyPileCode {
		if c, err := game.ParseCard(code); err == nil {
			top = c
			topPresent = true
		}
	}

	mustLow := m.Get("must_play_low") == "true"

	var legal []string
	s.hand.Range(func(code string) bool {
		c, err := game.ParseCard(code)
		if err == nil && game.CanPlayOn(c, top, topPresent, mustLow) {
			legal = append(legal, code)
		}

		return true
	})

	if len(legal) == 0 {
		_ = s.client.PickupPile()
		return
	}

	_ = s.client.PlayCards(utils.GetRandomElement(legal))
}

func repl(s *session) {
	promptColor.Println("commands: join | leave | start | play <cards> | reserve | pickup | ping | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		var err error

		switch strings.ToLower(cmd) {
		case "join":
			err = s.client.JoinRoom()
		case "leave":
			err = s.client.LeaveRoom()
		case "start":
			err = s.client.StartGame()
		case "play":
			codes := strings.Split(strings.ReplaceAll(rest, " ", ""), ",")
			err = s.client.PlayCards(codes...)
		case "reserve":
			err = s.client.PlayReserve()
		case "pickup":
			err = s.client.PickupPile()
		case "ping":
			err = s.client.Ping()
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q\n", cmd)
			continue
		}

		if err != nil {
			errColor.Fprintf(os.Stderr, "! %v\n", err)
		}
	}
}
