package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ovenrush/matchcore/internal/factory"
	"github.com/ovenrush/matchcore/internal/lobby"
	"github.com/ovenrush/matchcore/internal/match"
	"github.com/ovenrush/matchcore/internal/model"
	redisstorage "github.com/ovenrush/matchcore/internal/storage/redis"
	"github.com/ovenrush/matchcore/internal/transport"
	"github.com/ovenrush/matchcore/internal/transport/loopback"
	"github.com/ovenrush/matchcore/internal/transport/ws"
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run one match participant",
		Long: `play signs in, loads the player profile and enters a lobby. Without
--join it hosts its own lobby; with --join it connects to a running
host. The session is driven interactively from stdin.`,
		RunE: runPlay,
	}

	cmd.Flags().StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport: ws, loopback (env: MATCHCORE_TRANSPORT)")
	cmd.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Host bind address (env: MATCHCORE_LISTEN_ADDR)")
	cmd.Flags().StringVar(&cfg.JoinAddr, "join", cfg.JoinAddr, "Host address to join (env: MATCHCORE_JOIN_ADDR)")
	cmd.Flags().IntVar(&cfg.Bots, "bots", cfg.Bots, "Bots to inject when hosting (env: MATCHCORE_BOTS)")
	cmd.Flags().StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage backend: memory, redis (env: MATCHCORE_STORAGE)")
	cmd.Flags().StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL (env: MATCHCORE_REDIS_URL)")

	return cmd
}

func runPlay(cmd *cobra.Command, args []string) error {
	out := NewOutput(output)

	name := cfg.PlayerName
	if name == "" {
		name = "Player"
	}
	playerID := model.PlayerID("p_" + strings.ToLower(strings.ReplaceAll(name, " ", "-")))

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var tp transport.Transport
	switch cfg.Transport {
	case "loopback":
		tp = loopback.NewNetwork().NewTransport(playerID, name)
	case "ws":
		tp = ws.New(playerID, name, ws.Config{ListenAddr: cfg.ListenAddr}, logger)
	default:
		return fmt.Errorf("unknown transport %q: must be 'ws' or 'loopback'", cfg.Transport)
	}

	hosting := cfg.JoinAddr == ""
	var matchLobby *model.MatchLobby
	if hosting {
		matchLobby = &model.MatchLobby{
			ID:       model.LobbyID(uuid.NewString()),
			OwnerID:  playerID,
			Members:  []model.PlayerID{playerID},
			HostAddr: cfg.ListenAddr,
		}
	} else {
		matchLobby = &model.MatchLobby{
			ID:       "joined",
			OwnerID:  "p_remote-host",
			Members:  []model.PlayerID{playerID},
			HostAddr: cfg.JoinAddr,
		}
	}
	lobbySvc := lobby.NewMemoryService(matchLobby)

	factoryCfg := factory.Config{
		Transport:   tp,
		Lobby:       lobbySvc,
		Primary:     &staticPrimary{userID: playerID},
		Notifier:    &printNotifier{out: out},
		MatchConfig: match.Config{BotCount: cfg.Bots, LocalDisplayName: name},
		Logger:      logger,
		StorageType: cfg.Storage,
	}
	if cfg.Storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Machine.Run(ctx); err != nil && ctx.Err() == nil {
			out.PrintError(err)
		}
	}()

	out.PrintMessage("Commands: login, name <name>, lobby, ready, leave, roster, teams, end, menu, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		fields := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "login":
			app.Machine.SubmitLogin()
		case "name":
			app.Machine.SubmitDisplayName(strings.Join(fields[1:], " "))
		case "lobby":
			app.Machine.RequestLobby()
		case "ready":
			// The lobby has no remote membership backend; readiness is
			// declared locally. On a host that makes the match start; on
			// a client it means "the host told us to go".
			if hosting {
				lobbySvc.SetReady(playerID, true)
			} else {
				lobbySvc.NotifyMatchStarted()
			}
		case "leave":
			app.Machine.LeaveLobby()
		case "roster":
			records := app.Spawner.Records()
			players := make([]model.ReplicatedPlayer, len(records))
			for i := range records {
				players[i] = records[i].Replicated()
			}
			out.PrintRoster(players)
		case "teams":
			if app.Machine.Role() == model.RoleHost {
				out.PrintTeams(app.Teams.Snapshot())
			} else {
				out.PrintTeams(app.TeamMirror.Snapshot())
			}
		case "end":
			app.Machine.NotifyMatchEnded()
		case "menu":
			app.Machine.ReturnToMenu()
		case "state":
			out.PrintMessage(string(app.Machine.State()))
		case "quit":
			app.Negotiator.StopMatch()
			return nil
		default:
			out.PrintMessage("unknown command: " + fields[0])
		}
	}
	return scanner.Err()
}

// staticPrimary issues a device identity that is stable for the
// configured player name, so hosting the same lobby across restarts
// keeps the same owner id
type staticPrimary struct {
	userID model.PlayerID
}

func (p *staticPrimary) Name() string { return "device" }

func (p *staticPrimary) EnsureCredential(ctx context.Context, deviceModel string) error {
	return nil
}

func (p *staticPrimary) Login(ctx context.Context, credentialType, displayName string) (model.PlayerID, error) {
	return p.userID, nil
}

func (p *staticPrimary) ClearCredential(ctx context.Context, userID model.PlayerID) error {
	return nil
}

// printNotifier surfaces lifecycle notifications on stdout
type printNotifier struct {
	out *Output
}

func (n *printNotifier) Info(msg string) { n.out.PrintMessage(msg) }
func (n *printNotifier) Warn(msg string) { n.out.PrintMessage(msg) }
