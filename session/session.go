// Package session orchestrates one tag-presentation cycle: reset the
// record, derive keys, authenticate and decode blocks, resolve the
// material, emit feedback and submit the result.
//
// The scanner is single-threaded by construction: one control loop polls
// for tag presence, and all session work runs synchronously on that loop
// before polling resumes. The ScanRecord and derived key set are owned
// exclusively by the current session and rebuilt at session start.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/filatag/spool-scanner/interfaces"
	"github.com/filatag/spool-scanner/keyderive"
	"github.com/filatag/spool-scanner/materials"
	"github.com/filatag/spool-scanner/metrics"
	"github.com/filatag/spool-scanner/reader"
	"github.com/filatag/spool-scanner/tagdata"
)

// Feedback and network timing. These literals come from the device
// tuning and are part of the operator-facing behavior.
const (
	ToneDuration          = 120 * time.Millisecond
	ToneGap               = 150 * time.Millisecond
	LEDOnDuration         = 150 * time.Millisecond
	ReadIndicatorDuration = 500 * time.Millisecond
	AssociationTimeout    = 10000 * time.Millisecond

	DefaultPollInterval  = 250 * time.Millisecond
	DefaultSubmitTimeout = 10 * time.Second
)

// Two-tone cue frequencies. The second tone signals data completeness:
// high when the tray identifier decoded, low when it is the missing
// sentinel.
const (
	toneScanHz     = 1047
	toneCompleteHz = 1319
	toneDegradedHz = 784
)

// State is the scan session state.
type State int

const (
	StateIdle State = iota
	StateIdentified
	StateDecoding
	StateResolved
	StateReporting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateIdentified:
		return "identified"
	case StateDecoding:
		return "decoding"
	case StateResolved:
		return "resolved"
	case StateReporting:
		return "reporting"
	default:
		return "unknown"
	}
}

// Submitter posts one completed record to the append service.
type Submitter interface {
	Submit(ctx context.Context, rec interfaces.ScanRecord) error
}

// Config wires a Scanner's collaborators. Transport, Materials and Log
// are required; a nil Submitter runs the scanner in degraded mode where
// the submission step is skipped, and Toner/Display are optional
// capabilities.
type Config struct {
	Transport interfaces.TagTransport
	Materials *materials.Table
	Submitter Submitter
	Toner     interfaces.Toner
	Display   interfaces.Display
	Log       *slog.Logger

	PollInterval  time.Duration
	SubmitTimeout time.Duration
}

// Scanner runs the polling loop and scan sessions.
type Scanner struct {
	transport interfaces.TagTransport
	rd        *reader.Reader
	table     *materials.Table
	submitter Submitter
	toner     interfaces.Toner
	display   interfaces.Display
	log       *slog.Logger

	pollInterval  time.Duration
	submitTimeout time.Duration

	state State
	rec   interfaces.ScanRecord
}

// New creates a Scanner from the config.
func New(cfg Config) (*Scanner, error) {
	if cfg.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if cfg.Materials == nil {
		return nil, errors.New("material table is required")
	}
	if cfg.Log == nil {
		return nil, errors.New("logger is required")
	}

	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = DefaultPollInterval
	}
	submitTimeout := cfg.SubmitTimeout
	if submitTimeout == 0 {
		submitTimeout = DefaultSubmitTimeout
	}

	if cfg.Submitter == nil {
		cfg.Log.Warn("No append endpoint configured, running in degraded mode without submission")
	}

	return &Scanner{
		transport:     cfg.Transport,
		rd:            reader.New(cfg.Transport, cfg.Log),
		table:         cfg.Materials,
		submitter:     cfg.Submitter,
		toner:         cfg.Toner,
		display:       cfg.Display,
		log:           cfg.Log,
		pollInterval:  pollInterval,
		submitTimeout: submitTimeout,
		state:         StateIdle,
	}, nil
}

// State returns the current session state.
func (s *Scanner) State() State {
	return s.state
}

// Record returns the record of the current or most recent session.
func (s *Scanner) Record() interfaces.ScanRecord {
	return s.rec
}

// Run polls for tag presence until ctx is cancelled. Each presentation
// runs one full session on this goroutine; no concurrent sessions are
// possible. Only a lost transport ends the loop with an error.
func (s *Scanner) Run(ctx context.Context) error {
	for {
		uid, err := s.transport.Poll(ctx)
		switch {
		case err == nil:
			if _, err := s.ScanOnce(uid); err != nil {
				return err
			}
			// Hold off so one presentation does not double-scan.
			if !sleepCtx(ctx, ReadIndicatorDuration) {
				return ctx.Err()
			}
		case errors.Is(err, interfaces.ErrNoTag):
			if !sleepCtx(ctx, s.pollInterval) {
				return ctx.Err()
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return ctx.Err()
		default:
			return fmt.Errorf("%w: polling: %v", interfaces.ErrTransportGone, err)
		}
	}
}

// ScanOnce runs one complete session for an already identified tag. The
// returned error is non-nil only for total transport loss; every other
// failure mode is logged and the session still completes.
func (s *Scanner) ScanOnce(uid interfaces.TagUID) (interfaces.ScanRecord, error) {
	sessionID := uuid.Must(uuid.NewRandom()).String()
	log := s.log.With("session", sessionID, "uid", uid.String())

	// Identified: reset transient state before anything else.
	s.state = StateIdentified
	s.rec = interfaces.NewScanRecord(uid)
	log.Info("Tag identified", "state", s.state.String())

	// Decoding: derive keys, read and decode target blocks.
	s.state = StateDecoding
	keys := keyderive.Derive(uid)
	blocks, err := s.rd.ReadBlocks(keys, tagdata.TargetBlocks())
	if err != nil {
		log.Error("Transport lost during read", "err", err)
		return s.rec, err
	}
	decoded := 0
	for _, block := range tagdata.TargetBlocks() {
		raw, ok := blocks[block]
		if !ok {
			continue
		}
		if tagdata.Decode(block, raw, &s.rec) {
			decoded++
			metrics.BlocksDecoded.Inc()
		}
	}
	log.Debug("Blocks decoded", "decoded", decoded, "targets", len(tagdata.TargetBlocks()))

	// Resolved: material lookup, sentinel on miss.
	s.state = StateResolved
	s.resolve(log)

	// Reporting: feedback always, submission only when the guard passes.
	s.state = StateReporting
	s.report(log)

	s.state = StateIdle
	return s.rec, nil
}

// resolve applies the material table to the decoded identifiers.
func (s *Scanner) resolve(log *slog.Logger) {
	entry, ok := s.table.Lookup(s.rec.MaterialID, s.rec.VariantID)
	if !ok {
		s.rec.Code = interfaces.UnresolvedCode
		// Surface the raw strings to the operator instead of failing.
		s.rec.Name = s.rec.MaterialID
		metrics.ScansTotal.WithLabelValues("unresolved").Inc()
		log.Warn("Material not found",
			"variantId", s.rec.VariantID, "materialId", s.rec.MaterialID)
		return
	}

	s.rec.Code = entry.Code
	if len(s.rec.Code) > interfaces.MaxCodeLen {
		s.rec.Code = s.rec.Code[:interfaces.MaxCodeLen]
	}
	s.rec.Name = entry.Name
	s.rec.Color = entry.Color
	metrics.ScansTotal.WithLabelValues("resolved").Inc()
	log.Info("Material resolved", "code", s.rec.Code, "name", s.rec.Name)
}

// report emits operator feedback and attempts submission.
func (s *Scanner) report(log *slog.Logger) {
	if s.display != nil {
		s.display.Show(s.rec.Name, "Code "+s.rec.Code)
	}

	trayPresent := s.rec.TrayUID != interfaces.MissingTrayUID
	s.playFeedback(trayPresent)

	if !s.rec.Submittable() {
		metrics.SubmissionsTotal.WithLabelValues("skipped").Inc()
		log.Info("Submission skipped by guard", "code", s.rec.Code)
		return
	}
	if s.submitter == nil {
		metrics.SubmissionsTotal.WithLabelValues("skipped").Inc()
		log.Warn("Submission skipped, no endpoint configured")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.submitTimeout)
	defer cancel()
	if err := s.submitter.Submit(ctx, s.rec); err != nil {
		// Network failure never aborts the session.
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		log.Warn("Submission failed", "err", err)
		return
	}
	metrics.SubmissionsTotal.WithLabelValues("ok").Inc()
	log.Info("Scan submitted", "code", s.rec.Code, "trayUid", s.rec.TrayUID)
}

// playFeedback plays the two-tone cue. The second tone differs by
// whether the tray identifier decoded, signaling data completeness
// without blocking the workflow.
func (s *Scanner) playFeedback(trayPresent bool) {
	if s.toner == nil {
		return
	}
	s.toner.Tone(toneScanHz, ToneDuration)
	time.Sleep(ToneGap)
	if trayPresent {
		s.toner.Tone(toneCompleteHz, ToneDuration)
	} else {
		s.toner.Tone(toneDegradedHz, ToneDuration)
	}
}

// sleepCtx sleeps for d, returning false if ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
