package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/luc527/checkers_autoplay/board"
	"github.com/luc527/checkers_autoplay/bot"
	"github.com/luc527/checkers_autoplay/surface"
)

const usage = `usage: checkers_autoplay <command> [flags]

commands:
  play       play a few moves against a table, then restart it
  serve      host the reference table over websockets
  webhooks   list|add|del game-over webhooks
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, err := CommandFromString(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n%v", err, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[2:]
	switch cmd {
	case playCommand:
		err = runPlay(ctx, args)
	case serveCommand:
		err = runServe(ctx, args)
	case webhooksCommand:
		err = runWebhooks(args)
	}
	if err != nil {
		stop()
		log.Fatalf("%v: %v", cmd, err)
	}
}

func runPlay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(playCommand.String(), flag.ExitOnError)
	url := fs.String("surface", "ws://localhost:8080/ws", "websocket url of the table")
	moves := fs.Int("moves", 5, "maximum number of moves to play")
	restart := fs.Bool("restart", true, "restart the game when done")
	settleDelay := fs.Duration("settle", bot.DefaultSettleDelay, "pause after each move (negative disables it)")
	turnTimeout := fs.Duration("turn-timeout", 0, "how long to wait for the turn (0 waits forever)")
	restartTimeout := fs.Duration("restart-timeout", 0, "how long to wait for a fresh board (0 waits forever)")
	turnPrefix := fs.String("turn-prefix", bot.DefaultTurnPrefix, "status prefix that means it's our turn")
	fs.Parse(args)

	if *moves < 0 {
		return fmt.Errorf("invalid move budget %v", *moves)
	}

	ws, err := surface.Dial(ctx, *url, nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	log.Printf("connected to %v", *url)

	p := &bot.Player{
		TurnPrefix:     *turnPrefix,
		SettleDelay:    *settleDelay,
		TurnTimeout:    *turnTimeout,
		RestartTimeout: *restartTimeout,
	}
	res, err := p.Play(ctx, ws, *moves)
	if err != nil {
		return err
	}
	log.Printf("played %v moves (%v): %v", res.Turns, res.Outcome, res.Moves)

	if !*restart {
		return nil
	}
	if err := p.Restart(ctx, ws); err != nil {
		return err
	}
	log.Println("game successfully restarted")
	return nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(serveCommand.String(), flag.ExitOnError)
	addr := fs.String("addr", ":8080", "http service address")
	houseDelay := fs.Duration("opponent-delay", board.DefaultHouseDelay, "how long the house thinks before replying (negative disables it)")
	fs.Parse(args)

	db := openStore()

	m, err := board.NewMonitor(board.Options{
		HouseDelay: *houseDelay,
		OnGameOver: func(over board.GameOver) {
			log.Printf("game %v over, winner: %v", over.Id, over.Winner)
			notifyWebhooksGameEnded(db, over)
		},
	})
	if err != nil {
		return err
	}
	go m.Run()
	defer m.Stop()

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	board.NewServer(m).Routes(r)
	webhookRoutes(r, db)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 3 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		log.Printf("listening on %v", *addr)
		errC <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runWebhooks(args []string) error {
	fs := flag.NewFlagSet(webhooksCommand.String(), flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: checkers_autoplay webhooks list|add <url>|del <url>")
	}
	fs.Parse(args)

	db := openStore()

	var urls []string
	var err error
	switch fs.Arg(0) {
	case "list":
		urls, err = getWebhooks(db)
	case "add":
		if !validWebhookURL(fs.Arg(1)) {
			return fmt.Errorf("invalid webhook url %q", fs.Arg(1))
		}
		urls, err = addWebhook(db, fs.Arg(1))
	case "del":
		urls, err = deleteWebhook(db, fs.Arg(1))
	default:
		fs.Usage()
		return fmt.Errorf("invalid webhooks action %q", fs.Arg(0))
	}
	if err != nil {
		return err
	}
	for _, url := range urls {
		fmt.Println(url)
	}
	return nil
}
