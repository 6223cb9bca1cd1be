// Package whisperd talks to a local whisper transcription server:
// batch transcription over HTTP, live transcription over websocket.
package whisperd

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"whisperkey/internal/domain"
	"whisperkey/internal/ports"
)

// Config controls the whisperd endpoint.
type Config struct {
	BaseURL  string
	Language string
}

// Client implements ports.Transcriber and ports.StreamingTranscriber.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://127.0.0.1:8765"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

type transcribeResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Error    string `json:"error"`
}

// Transcribe posts raw s16le PCM and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, samples []int16, sampleRate int) (domain.Transcript, error) {
	endpoint, err := c.transcribeURL(sampleRate)
	if err != nil {
		return domain.Transcript{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encodeS16LE(samples)))
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("build transcribe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("call whisperd: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("read whisperd response: %w", err)
	}

	var decoded transcribeResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return domain.Transcript{}, fmt.Errorf("decode whisperd response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		message := strings.TrimSpace(decoded.Error)
		if message == "" {
			message = strings.TrimSpace(string(payload))
		}
		return domain.Transcript{}, fmt.Errorf("whisperd returned %d: %s", resp.StatusCode, message)
	}

	return domain.Transcript{Text: decoded.Text, Language: decoded.Language}, nil
}

func (c *Client) transcribeURL(sampleRate int) (string, error) {
	endpoint, err := url.Parse(c.cfg.BaseURL + "/transcribe")
	if err != nil {
		return "", fmt.Errorf("invalid whisperd base URL: %w", err)
	}
	query := endpoint.Query()
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	query.Set("sample_rate", strconv.Itoa(sampleRate))
	if c.cfg.Language != "" {
		query.Set("language", c.cfg.Language)
	}
	endpoint.RawQuery = query.Encode()
	return endpoint.String(), nil
}

// StartStreaming opens a websocket session delivering partial
// hypotheses as audio arrives.
func (c *Client) StartStreaming(ctx context.Context, cfg ports.StreamingConfig) (ports.StreamingSession, error) {
	wsURL, err := c.streamURL(cfg)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to whisperd stream: %w", err)
	}

	session := &streamSession{
		conn:   conn,
		events: make(chan domain.TranscriptEvent, 64),
		audio:  make(chan []byte, 32),
		done:   make(chan struct{}),
	}

	session.wg.Add(2)
	go session.readLoop()
	go session.writeLoop()
	go func() {
		session.wg.Wait()
		close(session.events)
		close(session.done)
		_ = conn.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	return session, nil
}

func (c *Client) streamURL(cfg ports.StreamingConfig) (string, error) {
	base := c.cfg.BaseURL
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	streamURL, err := url.Parse(base + "/stream")
	if err != nil {
		return "", fmt.Errorf("invalid whisperd base URL: %w", err)
	}

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	query := streamURL.Query()
	query.Set("sample_rate", strconv.Itoa(cfg.SampleRate))
	query.Set("channels", strconv.Itoa(cfg.Channels))
	language := cfg.Language
	if language == "" {
		language = c.cfg.Language
	}
	if language != "" {
		query.Set("language", language)
	}
	streamURL.RawQuery = query.Encode()
	return streamURL.String(), nil
}

type streamSession struct {
	conn *websocket.Conn

	events chan domain.TranscriptEvent
	audio  chan []byte
	done   chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeSendOnce sync.Once
	closeOnce     sync.Once
	sendMu        sync.RWMutex
	sendClosed    bool
}

func (s *streamSession) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	// Held across the send: CloseSend takes the write lock before
	// closing the channel, so it cannot close s.audio between the
	// check and the send below.
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.sendClosed {
		return errors.New("audio stream is already closed")
	}

	copied := append([]byte(nil), chunk...)
	select {
	case s.audio <- copied:
		return nil
	case <-s.done:
		if err := s.waitErr(); err != nil {
			return err
		}
		return errors.New("session closed")
	}
}

func (s *streamSession) CloseSend() error {
	s.closeSendOnce.Do(func() {
		s.sendMu.Lock()
		s.sendClosed = true
		close(s.audio)
		s.sendMu.Unlock()
	})
	return nil
}

func (s *streamSession) Events() <-chan domain.TranscriptEvent {
	return s.events
}

func (s *streamSession) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *streamSession) Close() error {
	s.closeOnce.Do(func() {
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.waitErr()
}

func (s *streamSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *streamSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *streamSession) writeLoop() {
	defer s.wg.Done()

	for chunk := range s.audio {
		if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.setErr(fmt.Errorf("send audio: %w", err))
			return
		}
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"end"}`)); err != nil {
		s.setErr(fmt.Errorf("finish stream: %w", err))
	}
}

func (s *streamSession) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("read stream event: %w", err))
			return
		}

		var event streamEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			continue
		}

		switch strings.ToLower(event.Type) {
		case "error":
			message := strings.TrimSpace(event.Message)
			if message == "" {
				message = "whisperd returned an unknown error"
			}
			s.setErr(errors.New(message))
			return
		case "final":
			s.emit(domain.TranscriptEvent{Kind: domain.TranscriptKindFinal, Text: strings.TrimSpace(event.Text)})
			return
		default:
			if text := strings.TrimSpace(event.Text); text != "" {
				s.emit(domain.TranscriptEvent{Kind: domain.TranscriptKindPartial, Text: text})
			}
		}
	}
}

func (s *streamSession) emit(event domain.TranscriptEvent) {
	select {
	case s.events <- event:
	case <-s.done:
	default:
	}
}

type streamEvent struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Message string `json:"message"`
}

func encodeS16LE(samples []int16) []byte {
	raw := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(sample))
	}
	return raw
}
