package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	pollTimeout = 30 * time.Second
	pollBackoff = 5 * time.Second
)

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type updatesResponse struct {
	OK          bool     `json:"ok"`
	Description string   `json:"description"`
	Result      []update `json:"result"`
}

// fetchUpdates long-polls getUpdates once.
func (t *TelegramNotifier) fetchUpdates(ctx context.Context, client *http.Client, offset int64) ([]update, error) {
	apiURL := fmt.Sprintf("%s?offset=%d&timeout=%d", t.endpoint("getUpdates"), offset, int(pollTimeout.Seconds()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read updates: %w", err)
	}
	var r updatesResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	if !r.OK {
		return nil, fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, r.Description)
	}
	return r.Result, nil
}

// fromOwnChat reports whether u was sent in the configured chat. A non-numeric
// ChatID (e.g. "@channel") cannot be compared and accepts every chat.
func (t *TelegramNotifier) fromOwnChat(u update) bool {
	id, err := strconv.ParseInt(t.ChatID, 10, 64)
	if err != nil {
		return true
	}
	return u.Message.Chat.ID == id
}

// StartPolling long-polls for chat commands and answers them through d.
// Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, d *Dispatcher) {
	client := &http.Client{Timeout: pollTimeout + 5*time.Second, Transport: t.Client.Transport}
	var offset int64

	for ctx.Err() == nil {
		updates, err := t.fetchUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warn().Err(err).Dur("backoff", pollBackoff).Msg("telegram polling failed")
			sleepCtx(ctx, pollBackoff)
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			if !t.fromOwnChat(u) {
				log.Warn().Int64("chat_id", u.Message.Chat.ID).Msg("ignoring command from foreign chat")
				continue
			}
			log.Info().Str("command", u.Message.Text).Msg("received command")
			if reply := d.Dispatch(ctx, u.Message.Text); reply != "" {
				if err := t.Send(ctx, reply); err != nil {
					log.Error().Err(err).Msg("send reply")
				}
			}
		}
	}
	log.Info().Msg("telegram polling stopped")
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
