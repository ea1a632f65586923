package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roomkino/watchroom/internal/config"
	"github.com/roomkino/watchroom/internal/domain"
	"github.com/roomkino/watchroom/internal/present"
	"github.com/roomkino/watchroom/internal/restapi"
	"github.com/roomkino/watchroom/internal/session"
	"github.com/roomkino/watchroom/internal/transport"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// WATCHROOM_TOKEN may live in a .env next to the binary.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	token := os.Getenv("WATCHROOM_TOKEN")
	if token == "" {
		log.Fatal().Msg("WATCHROOM_TOKEN is not set")
	}

	clientID := uuid.NewString()
	log.Info().Str("client_id", clientID).Str("api", cfg.APIBase).Msg("watchroom client started")

	api := restapi.New(cfg.APIBase, token, cfg.HTTPTimeout)
	api.OnUnauthorized(func() {
		log.Error().Msg("credential invalidated, signing out")
		cancel()
	})

	sess := session.New(transport.Config{
		WSBase:         cfg.WSBase,
		ConnectTimeout: cfg.ConnectTimeout,
		PingPeriod:     cfg.PingPeriod,
		ReadLimit:      cfg.ReadLimit,
	})
	defer sess.Disconnect()

	view := present.New(sess)
	go printUpdates(ctx, view)

	repl(ctx, api, sess, token)
	log.Info().Msg("bye")
}

func printUpdates(ctx context.Context, view *present.Adapter) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-view.Updates():
			render(view.View())
		}
	}
}

func render(v present.RoomView) {
	fmt.Printf("\n[%s]", v.StateLabel)
	if v.RoomStatus != "" {
		fmt.Printf(" room=%s", v.RoomStatus)
	}
	if len(v.Participants) > 0 {
		fmt.Printf(" participants=%s", strings.Join(v.Participants, ","))
	}
	if v.MovieTitle != "" {
		fmt.Printf("\n  now voting %s: %q (group score %d%%)", v.Progress, v.MovieTitle, v.MoviePercent)
		if v.VotedCurrent {
			fmt.Printf(" [voted]")
		}
	}
	if v.WinnerTitle != "" {
		fmt.Printf("\n  winner: %q (%d%%)", v.WinnerTitle, v.WinnerScore)
	}
	if v.Notice != "" {
		fmt.Printf("\n  ! %s", v.Notice)
	}
	fmt.Println()
}

func repl(ctx context.Context, api *restapi.Client, sess *session.Session, token string) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("commands: rooms create join invite invitations accept decline process recs start watch status like dislike stop leave remove quit")
	for fmt.Print("> "); scanner.Scan(); fmt.Print("> ") {
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return
		}
		if err := run(ctx, api, sess, token, cmd, args); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func run(ctx context.Context, api *restapi.Client, sess *session.Session, token, cmd string, args []string) error {
	switch cmd {
	case "rooms":
		rooms, err := api.ListRooms(ctx)
		if err != nil {
			return err
		}
		for _, r := range rooms {
			fmt.Printf("  %s %q [%s] %d/%d\n", r.RoomID, r.Name, r.Status, r.CurrentParticipants, r.MaxParticipants)
		}
		return nil
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("usage: create <name> <max_participants>")
		}
		maxP, err := strconv.Atoi(args[len(args)-1])
		if err != nil {
			return fmt.Errorf("max_participants: %w", err)
		}
		name := strings.Join(args[:len(args)-1], " ")
		room, err := api.CreateRoom(ctx, restapi.CreateRoomRequest{Name: name, MaxParticipants: maxP})
		if err != nil {
			return err
		}
		fmt.Println("  created", room.RoomID)
		return nil
	case "join":
		return one(args, func(id string) error {
			_, err := api.JoinRoom(ctx, domain.RoomID(id))
			return err
		})
	case "leave":
		return one(args, func(id string) error {
			_, err := api.LeaveRoom(ctx, domain.RoomID(id))
			return err
		})
	case "invite":
		if len(args) < 2 {
			return fmt.Errorf("usage: invite <room_id> <friend_id>...")
		}
		friends := make([]domain.UserID, 0, len(args)-1)
		for _, f := range args[1:] {
			friends = append(friends, domain.UserID(f))
		}
		return api.InviteFriends(ctx, domain.RoomID(args[0]), friends)
	case "invitations":
		invs, err := api.MyInvitations(ctx)
		if err != nil {
			return err
		}
		for _, inv := range invs {
			fmt.Printf("  %s room %q from %s [%s]\n", inv.InvitationID, inv.RoomName, inv.SenderDisplayName, inv.Status)
		}
		return nil
	case "accept":
		return one(args, func(id string) error {
			return api.RespondToInvitation(ctx, id, restapi.InvitationAccept)
		})
	case "decline":
		return one(args, func(id string) error {
			return api.RespondToInvitation(ctx, id, restapi.InvitationDecline)
		})
	case "process":
		return one(args, func(id string) error {
			out, err := api.ProcessRecommendations(ctx, domain.RoomID(id))
			if err != nil {
				return err
			}
			fmt.Printf("  %s: %s (%d candidates)\n", out.Status, out.Message, out.RecommendationCount)
			return nil
		})
	case "recs":
		return one(args, func(id string) error {
			out, err := api.Recommendations(ctx, domain.RoomID(id))
			if err != nil {
				return err
			}
			for _, m := range out.Recommendations {
				fmt.Printf("  %q %d%%\n", m.Title, m.ScorePercent())
			}
			return nil
		})
	case "start":
		// Voting starts over REST; the socket only observes it.
		return one(args, func(id string) error {
			if err := api.StartVoting(ctx, domain.RoomID(id)); err != nil {
				return err
			}
			return sess.Connect(ctx, domain.RoomID(id), token)
		})
	case "watch":
		return one(args, func(id string) error {
			return sess.Connect(ctx, domain.RoomID(id), token)
		})
	case "status":
		return sess.RequestRoomStatus()
	case "like":
		return sess.SubmitVote(domain.VoteLike)
	case "dislike":
		return sess.SubmitVote(domain.VoteDislike)
	case "stop":
		sess.Disconnect()
		return nil
	case "remove":
		if len(args) != 2 {
			return fmt.Errorf("usage: remove <room_id> <member_id>")
		}
		return api.RemoveMember(ctx, domain.RoomID(args[0]), domain.UserID(args[1]))
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func one(args []string, fn func(string) error) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one argument")
	}
	return fn(args[0])
}
