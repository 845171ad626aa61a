package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"travel-planner-backend/internal/metrics"
	"travel-planner-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	commentWriteTimeout = 5 * time.Second

	// events a subscriber may fall behind before it is dropped
	commentQueueSize = 16
)

// CommentEvent is pushed to the subscribers of a travel detail
type CommentEvent struct {
	Type           string          `json:"type"`
	TravelDetailID int             `json:"travel_detail_id"`
	Comment        *models.Comment `json:"comment,omitempty"`
	CommentID      int64           `json:"comment_id,omitempty"`
}

// subscriber wraps a connection; gorilla allows one concurrent writer per connection.
// Events are queued on send and written by the subscriber's own goroutine.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(commentWriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *subscriber) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(commentWriteTimeout))
}

// CommentHub fans out comment events to WebSocket subscribers of a travel detail
type CommentHub struct {
	mu    sync.RWMutex
	feeds map[int]map[*subscriber]struct{}
}

// NewCommentHub creates a new comment hub
func NewCommentHub() *CommentHub {
	return &CommentHub{
		feeds: make(map[int]map[*subscriber]struct{}),
	}
}

// Subscribe registers a connection for a travel detail's comment feed.
// The returned func unregisters and closes the connection.
func (h *CommentHub) Subscribe(detailID int, conn *websocket.Conn) func() {
	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, commentQueueSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	feed, ok := h.feeds[detailID]
	if !ok {
		feed = make(map[*subscriber]struct{})
		h.feeds[detailID] = feed
	}
	feed[sub] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(detailID, sub)

	metrics.CommentSubscribers.Inc()
	log.Info().Int("travel_detail_id", detailID).Msg("Comment feed subscriber registered")

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(detailID, sub) })
	}
}

// Subscribers returns the number of connections watching a travel detail
func (h *CommentHub) Subscribers(detailID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.feeds[detailID])
}

// CommentAdded broadcasts a new comment
func (h *CommentHub) CommentAdded(detailID int, comment models.Comment) {
	h.broadcast(detailID, CommentEvent{
		Type:           "comment_added",
		TravelDetailID: detailID,
		Comment:        &comment,
	})
}

// CommentDeleted broadcasts a comment removal
func (h *CommentHub) CommentDeleted(detailID int, commentID int64) {
	h.broadcast(detailID, CommentEvent{
		Type:           "comment_deleted",
		TravelDetailID: detailID,
		CommentID:      commentID,
	})
}

// Run pings every subscriber at the given interval until ctx is done.
// Subscribers that fail the ping are dropped.
func (h *CommentHub) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.pingAll()
		}
	}
}

func (h *CommentHub) pingAll() {
	type target struct {
		sub      *subscriber
		detailID int
	}

	h.mu.RLock()
	var targets []target
	for detailID, feed := range h.feeds {
		for sub := range feed {
			targets = append(targets, target{sub: sub, detailID: detailID})
		}
	}
	h.mu.RUnlock()

	for _, t := range targets {
		if err := t.sub.ping(); err != nil {
			log.Debug().Err(err).Int("travel_detail_id", t.detailID).Msg("Comment feed ping failed")
			h.unsubscribe(t.detailID, t.sub)
		}
	}
}

// Close disconnects every subscriber
func (h *CommentHub) Close() {
	h.mu.Lock()
	feeds := h.feeds
	h.feeds = make(map[int]map[*subscriber]struct{})
	h.mu.Unlock()

	for _, feed := range feeds {
		for sub := range feed {
			close(sub.done)
			sub.conn.Close()
			metrics.CommentSubscribers.Dec()
		}
	}
}

func (h *CommentHub) unsubscribe(detailID int, sub *subscriber) {
	h.mu.Lock()
	feed := h.feeds[detailID]
	_, ok := feed[sub]
	if ok {
		delete(feed, sub)
		if len(feed) == 0 {
			delete(h.feeds, detailID)
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	close(sub.done)
	sub.conn.Close()
	metrics.CommentSubscribers.Dec()
	log.Info().Int("travel_detail_id", detailID).Msg("Comment feed subscriber unregistered")
}

func (h *CommentHub) broadcast(detailID int, event CommentEvent) {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.feeds[detailID]))
	for sub := range h.feeds[detailID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal comment event")
		return
	}

	for _, sub := range subs {
		select {
		case sub.send <- data:
		default:
			log.Warn().
				Int("travel_detail_id", detailID).
				Str("type", event.Type).
				Msg("Comment feed subscriber too slow, dropping it")
			h.unsubscribe(detailID, sub)
		}
	}
}

// writeLoop delivers queued events until the subscriber is removed
func (h *CommentHub) writeLoop(detailID int, sub *subscriber) {
	for {
		select {
		case <-sub.done:
			return
		case data := <-sub.send:
			if err := sub.write(data); err != nil {
				log.Warn().
					Err(err).
					Int("travel_detail_id", detailID).
					Msg("Failed to send comment event")
				h.unsubscribe(detailID, sub)
				return
			}
		}
	}
}
