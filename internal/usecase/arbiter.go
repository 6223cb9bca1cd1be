package usecase

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"whisperkey/internal/domain"
	"whisperkey/internal/hotkey"
	"whisperkey/internal/ports"
)

// quietThresholdDB is the RMS loudness below which a capture is
// treated as empty input: no transcription call, clean completion.
const quietThresholdDB = -50.0

// Config controls session behavior shared by every action.
type Config struct {
	Audio     ports.AudioConfig
	Language  string
	Streaming bool
	Fillers   bool
}

// Deps are the collaborators the arbiter orchestrates. Transformer,
// streamer, fillers and history may be nil; the corresponding routing
// degrades gracefully.
type Deps struct {
	Dispatcher  *hotkey.Dispatcher
	Resolver    *hotkey.Resolver
	Audio       ports.AudioCapture
	Transcriber ports.Transcriber
	Streamer    ports.StreamingTranscriber
	Transformer ports.TextTransformer
	Inserter    ports.TextInserter
	Fillers     ports.FillerFilter
	History     ports.HistoryStore
	Events      ports.EventSink
	Log         *slog.Logger
}

// Arbiter multiplexes N configured hotkey actions over the shared
// audio capture handle while guaranteeing at most one recording
// session is active system-wide. A press while a session is running is
// silently ignored; it never preempts.
type Arbiter struct {
	deps Deps
	cfg  Config
	log  *slog.Logger

	ctx context.Context

	mu       sync.Mutex
	bindings []*hotkey.Binding
	current  *activeSession
}

func NewArbiter(ctx context.Context, deps Deps, cfg Config) *Arbiter {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	return &Arbiter{deps: deps, cfg: cfg, log: log, ctx: ctx}
}

// Rebuild tears down every existing binding and registers a fresh set
// from the configured actions. A binding stopped mid-press synthesizes
// its release first, so the session it opened is completed rather than
// leaked. One malformed hotkey string never prevents the remaining
// actions from registering.
func (a *Arbiter) Rebuild(actions []domain.ActionConfig) {
	a.teardownBindings()

	var built []*hotkey.Binding
	for _, action := range actions {
		if strings.TrimSpace(action.Hotkey) == "" {
			continue
		}
		spec, err := a.deps.Resolver.ParseSpec(action.Hotkey)
		if err != nil {
			a.log.Warn("skipping action with invalid hotkey",
				"action", action.Kind, "id", action.ID, "hotkey", action.Hotkey, "error", err)
			continue
		}

		act := action
		binding := hotkey.NewBinding(act.ID, spec, a.deps.Resolver,
			func() { a.handlePress(act) },
			func() { a.handleRelease(act) },
			a.log,
		)
		a.deps.Dispatcher.Register(binding)
		built = append(built, binding)
		a.log.Info("hotkey registered",
			"action", act.Kind, "id", act.ID, "hotkey", spec.DisplayString())
	}

	a.mu.Lock()
	a.bindings = built
	a.mu.Unlock()
}

// Shutdown stops every binding (synthesizing releases for any held
// mid-press) and discards an in-flight capture.
func (a *Arbiter) Shutdown() {
	a.teardownBindings()

	a.mu.Lock()
	sess := a.current
	a.current = nil
	var capturing bool
	if sess != nil && !sess.released {
		sess.released = true
		capturing = true
	}
	a.mu.Unlock()

	if sess == nil {
		return
	}
	if capturing {
		if _, err := a.deps.Audio.Stop(); err != nil {
			a.log.Warn("audio stop during shutdown", "error", err)
		}
	}
	if sess.streaming() {
		_ = sess.stream.Close()
	}
	a.deps.Events.StatusChanged(domain.SessionStateIdle, domain.SessionReasonRecordingDiscarded)
}

// Status returns the current runtime status.
func (a *Arbiter) Status() domain.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return domain.Status{State: domain.SessionStateIdle}
	}
	state := domain.SessionStateRecording
	if a.current.released {
		state = domain.SessionStateProcessing
	}
	return domain.Status{
		State:  state,
		Active: true,
		Action: a.current.action.Kind,
	}
}

// teardownBindings unregisters and stops bindings without holding the
// session lock: a synthetic release from Stop re-enters handleRelease,
// which takes it.
func (a *Arbiter) teardownBindings() {
	a.mu.Lock()
	old := a.bindings
	a.bindings = nil
	a.mu.Unlock()

	for _, b := range old {
		a.deps.Dispatcher.Unregister(b)
	}
	for _, b := range old {
		b.Stop()
	}
}

// handlePress runs on the hook goroutine. It only opens the session
// and starts capture; everything slow, including the streaming dial,
// happens off this goroutine.
func (a *Arbiter) handlePress(action domain.ActionConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current != nil {
		// Never preempts, never surfaces to the user.
		a.log.Debug("press ignored, session already active",
			"pressed", action.Kind, "active", a.current.action.Kind)
		return
	}

	sess := &activeSession{
		id:     uuid.NewString(),
		action: action,
		start:  time.Now(),
	}

	var onChunk func([]byte)
	wantStream := a.cfg.Streaming && action.Kind == domain.ActionDictate && a.deps.Streamer != nil
	if wantStream {
		sess.forward = newChunkForwarder()
		onChunk = sess.forward.Forward
	}

	if err := a.deps.Audio.Start(a.ctx, a.cfg.Audio, onChunk); err != nil {
		a.deps.Events.SessionError(domain.ErrorCodeCaptureStart, err.Error())
		a.deps.Events.StatusChanged(domain.SessionStateIdle, domain.SessionReasonCaptureFailed)
		return
	}

	a.current = sess
	a.deps.Events.StatusChanged(domain.SessionStateRecording, domain.SessionReasonRecordingStarted)

	if wantStream {
		go a.attachStream(sess)
	}
}

// attachStream dials the streaming provider off the hook goroutine.
// Early PCM is buffered by the session's forwarder and flushed once
// the dial succeeds; a failed dial degrades the session to batch. A
// dial that completes after release is discarded, since the session
// has already been routed as batch.
func (a *Arbiter) attachStream(sess *activeSession) {
	stream, err := a.deps.Streamer.StartStreaming(a.ctx, ports.StreamingConfig{
		SampleRate: a.cfg.Audio.SampleRate,
		Channels:   a.cfg.Audio.Channels,
		Language:   a.cfg.Language,
	})
	if err != nil {
		a.log.Warn("streaming unavailable, falling back to batch", "error", err)
		sess.forward.Stop()
		return
	}

	a.mu.Lock()
	if sess.released {
		a.mu.Unlock()
		_ = stream.Close()
		return
	}
	sess.stream = stream
	sess.reconciler = newStreamReconciler()
	sess.eventsDone = make(chan struct{})
	a.mu.Unlock()

	go a.consumePartials(sess)
	sess.forward.Attach(stream)
}

// handleRelease runs on the hook goroutine. Capture stops here so the
// buffer cuts exactly at the release edge; routing the samples runs on
// a background goroutine and the session stays current until routing
// finishes, so late presses still see an active session. The released
// marker makes a second release for the same session a no-op: a press
// that was ignored during processing produces a release too, and that
// release must not re-route the stale session.
func (a *Arbiter) handleRelease(action domain.ActionConfig) {
	a.mu.Lock()
	sess := a.current
	if sess == nil || sess.action.ID != action.ID || sess.released {
		a.mu.Unlock()
		return
	}
	sess.released = true
	a.mu.Unlock()

	samples, err := a.deps.Audio.Stop()
	if err != nil {
		a.deps.Events.SessionError(domain.ErrorCodeCaptureStop, err.Error())
	}

	a.deps.Events.StatusChanged(domain.SessionStateProcessing, domain.SessionReasonTranscribing)
	go a.process(sess, samples)
}

func (a *Arbiter) process(sess *activeSession, samples []int16) {
	if sess.streaming() {
		a.finishStreaming(sess)
		return
	}

	if len(samples) == 0 || audioLevelDB(samples) < quietThresholdDB {
		a.finish(sess, domain.SessionReasonAudioTooQuiet)
		return
	}

	transcript, err := a.deps.Transcriber.Transcribe(a.ctx, samples, a.cfg.Audio.SampleRate)
	if err != nil {
		a.deps.Events.SessionError(domain.ErrorCodeTranscription, err.Error())
		a.finish(sess, domain.SessionReasonTranscriptionFailed)
		return
	}

	text := strings.TrimSpace(transcript.Text)
	if text == "" {
		a.finish(sess, domain.SessionReasonNoTranscript)
		return
	}

	switch sess.action.Kind {
	case domain.ActionDictate:
		a.routeDictation(sess, text, transcript.Language)
	default:
		a.routeTransform(sess, text)
	}
}

func (a *Arbiter) routeDictation(sess *activeSession, text, language string) {
	if a.cfg.Fillers && a.deps.Fillers != nil {
		filtered, err := a.deps.Fillers.Apply(text)
		if err != nil {
			a.log.Warn("filler filter failed, inserting raw transcript", "error", err)
		} else {
			text = filtered
		}
	}
	if text == "" {
		a.finish(sess, domain.SessionReasonNoTranscript)
		return
	}

	a.recordHistory(sess, text, language)
	a.deps.Events.FinalTranscript(text)

	if !a.deps.Inserter.Insert(text) {
		a.deps.Events.SessionError(domain.ErrorCodeInsertion, "failed to insert transcript at cursor")
		a.finish(sess, domain.SessionReasonInsertFailed)
		return
	}
	a.finish(sess, domain.SessionReasonTextInserted)
}

func (a *Arbiter) routeTransform(sess *activeSession, text string) {
	if a.deps.Transformer == nil {
		a.deps.Events.Alert("Action unavailable", "No text transformer is configured.")
		a.finish(sess, domain.SessionReasonTransformFailed)
		return
	}

	out, err := a.deps.Transformer.Transform(a.ctx, text, sess.action.Prompt)
	if err != nil {
		// Requires user action (configuring a key, fixing network);
		// surfaced as an alert, never retried.
		a.deps.Events.SessionError(domain.ErrorCodeTransform, err.Error())
		a.deps.Events.Alert(transformAlertTitle(sess.action), err.Error())
		a.finish(sess, domain.SessionReasonTransformFailed)
		return
	}

	out = strings.TrimSpace(out)
	if out == "" {
		a.finish(sess, domain.SessionReasonNoTranscript)
		return
	}

	a.deps.Events.FinalTranscript(out)
	if !a.deps.Inserter.Insert(out) {
		a.deps.Events.SessionError(domain.ErrorCodeInsertion, "failed to insert transformed text at cursor")
		a.finish(sess, domain.SessionReasonInsertFailed)
		return
	}
	a.finish(sess, domain.SessionReasonTextInserted)
}

// finishStreaming closes out a streaming session. The reconciler has
// already typed the text; its last commit is the canonical transcript
// for bookkeeping and no further reconciliation happens.
func (a *Arbiter) finishStreaming(sess *activeSession) {
	_ = sess.stream.CloseSend()
	waitForStream(sess.stream, 4*time.Second)
	<-sess.eventsDone

	final := strings.TrimSpace(sess.reconciler.Committed())
	if final == "" {
		a.finish(sess, domain.SessionReasonNoTranscript)
		return
	}

	a.recordHistory(sess, final, a.cfg.Language)
	a.deps.Events.FinalTranscript(final)
	a.finish(sess, domain.SessionReasonTextInserted)
}

// consumePartials applies each partial hypothesis to the focused text
// cursor as a minimal delete/insert pair.
func (a *Arbiter) consumePartials(sess *activeSession) {
	defer close(sess.eventsDone)

	for event := range sess.stream.Events() {
		text := strings.TrimSpace(event.Text)
		if text == "" {
			continue
		}
		a.deps.Events.PartialTranscript(text)

		edit := sess.reconciler.Reconcile(text)
		if edit.DeleteCount == 0 && edit.Insert == "" {
			continue
		}
		if edit.DeleteCount > 0 && !a.deps.Inserter.DeleteBackward(edit.DeleteCount) {
			a.log.Warn("delete-backward failed during reconciliation", "count", edit.DeleteCount)
		}
		if edit.Insert != "" && !a.deps.Inserter.Insert(edit.Insert) {
			a.log.Warn("insert failed during reconciliation")
		}
	}
}

func (a *Arbiter) recordHistory(sess *activeSession, text, language string) {
	if a.deps.History == nil {
		return
	}
	entry := domain.HistoryEntry{
		Text:      text,
		Language:  language,
		Duration:  sess.duration(),
		CreatedAt: time.Now(),
	}
	if err := a.deps.History.Add(entry); err != nil {
		a.deps.Events.SessionError(domain.ErrorCodeHistory, err.Error())
	}
}

// finish destroys the session and returns the UI to Idle regardless of
// how routing went.
func (a *Arbiter) finish(sess *activeSession, reason domain.SessionStateReason) {
	a.mu.Lock()
	if a.current == sess {
		a.current = nil
	}
	a.mu.Unlock()

	a.deps.Events.StatusChanged(domain.SessionStateIdle, reason)
}

func transformAlertTitle(action domain.ActionConfig) string {
	switch action.Kind {
	case domain.ActionTranslate:
		return "Translation failed"
	case domain.ActionFix:
		return "Fix failed"
	default:
		if action.Name != "" {
			return action.Name + " failed"
		}
		return "Action failed"
	}
}

func waitForStream(session ports.StreamingSession, timeout time.Duration) {
	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		_ = session.Close()
		<-done
	}
}

// audioLevelDB computes RMS loudness in dBFS. Silence is -100.
func audioLevelDB(samples []int16) float64 {
	if len(samples) == 0 {
		return -100.0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms <= 0 {
		return -100.0
	}
	return 20 * math.Log10(rms)
}
