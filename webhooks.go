package main

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/luc527/checkers_autoplay/board"
)

type webhookRequestBody struct {
	Id        uuid.UUID    `json:"id"`
	Winner    board.Winner `json:"winner"`
	Moves     int          `json:"moves"`
	Timestamp int64        `json:"timestamp"`
}

var webhookClient = &http.Client{Timeout: 10 * time.Second}

func notifyWebhooksGameEnded(db store, over board.GameOver) {
	urls, err := getWebhooks(db)
	if err != nil {
		log.Printf("failed to notify webhooks, couldn't get'em: %v", err)
		return
	}
	notifyWebhooks(over, urls)
}

func notifyWebhooks(over board.GameOver, urls []string) {
	body := webhookRequestBody{
		Id:        over.Id,
		Winner:    over.Winner,
		Moves:     over.Moves,
		Timestamp: time.Now().UnixMilli(),
	}
	bytes, err := json.Marshal(body)
	if err != nil {
		log.Printf("failed to marshal webhook request body: %v", err)
		return
	}
	for _, url := range urls {
		log.Printf("notifying webhook %v of game %v (winner %v)", url, over.Id, over.Winner)
		go webhookSend(url, bytes)
	}
}

func webhookSend(url string, data []byte) {
	reader := bytes.NewReader(data)
	resp, err := webhookClient.Post(url, "application/json", reader)
	if err != nil {
		log.Printf("webhook send failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		log.Printf("webhook %v ok", url)
	} else {
		log.Printf("webhook %v failed with status %v", url, resp.StatusCode)
	}
}
