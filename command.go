package main

import "fmt"

type command byte

const (
	playCommand = command(iota)
	serveCommand
	webhooksCommand
)

func (c command) String() string {
	switch c {
	case playCommand:
		return "play"
	case serveCommand:
		return "serve"
	case webhooksCommand:
		return "webhooks"
	default:
		return "invalid"
	}
}

func CommandFromString(s string) (command, error) {
	switch s {
	case "play":
		return playCommand, nil
	case "serve":
		return serveCommand, nil
	case "webhooks":
		return webhooksCommand, nil
	default:
		return 0, fmt.Errorf("invalid command %v", s)
	}
}
