package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/polagate/dotledger/internal/logging"
	"github.com/polagate/dotledger/internal/metrics"
	"github.com/polagate/dotledger/internal/substrate"
	"github.com/polagate/dotledger/internal/transport"
	dlerr "github.com/polagate/dotledger/pkg/errors"
)

// Default probe throttle: a UI polling "is the device there?" should not
// hammer the USB stack.
const (
	defaultProbeRate  = 2
	defaultProbeBurst = 4
)

// Manager owns the device session state and runs task sequences against
// the transport. All state lives in one authoritative, mutex-guarded
// cell read synchronously by the getters; subscribers receive
// eventually-consistent snapshots for rendering.
type Manager struct {
	factory   transport.Factory
	newClient ClientFactory
	store     Store
	log       *zap.SugaredLogger
	probes    *rate.Limiter

	// inFlight rejects overlapping task sequences. Only one sequence
	// may hold the transport at a time.
	inFlight atomic.Bool

	mu        sync.Mutex
	state     State
	subs      map[uint64]chan State
	nextSubID uint64
}

// Config carries the Manager dependencies.
type Config struct {
	// Factory opens device transports. Required.
	Factory transport.Factory

	// Store persists the state surface between processes. Optional.
	Store Store

	// Logger defaults to a nop logger.
	Logger *zap.SugaredLogger

	// NewClient defaults to the Polkadot app client.
	NewClient ClientFactory

	// ProbeRatePerSecond and ProbeBurst throttle pairing probes.
	// Zero values select the defaults.
	ProbeRatePerSecond float64
	ProbeBurst         int
}

// NewManager creates a session manager. Persisted state, if any, is
// loaded so a fresh process presents a continuous state surface.
func NewManager(cfg *Config) *Manager {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}

	newClient := cfg.NewClient
	if newClient == nil {
		newClient = func(t transport.Transport) AddressClient {
			return substrate.NewClient(t)
		}
	}

	probeRate := cfg.ProbeRatePerSecond
	if probeRate <= 0 {
		probeRate = defaultProbeRate
	}
	probeBurst := cfg.ProbeBurst
	if probeBurst <= 0 {
		probeBurst = defaultProbeBurst
	}

	m := &Manager{
		factory:   cfg.Factory,
		newClient: newClient,
		store:     cfg.Store,
		log:       log,
		probes:    rate.NewLimiter(rate.Limit(probeRate), probeBurst),
		state:     State{Pairing: PairingUnknown},
		subs:      make(map[uint64]chan State),
	}

	if m.store != nil {
		if loaded, err := m.store.Load(); err != nil {
			log.Warnw("loading session state", "error", err)
		} else if loaded != nil {
			m.state = *loaded
		}
	}

	return m
}

// Snapshot returns a deep copy of the current state surface.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Subscribe registers a rendering subscriber. The channel always holds
// at most the latest snapshot: a slow subscriber misses intermediate
// states but never blocks a writer. The returned cancel function
// unregisters and closes the channel.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++

	ch := make(chan State, 1)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// mutate applies fn to the state under the lock, persists the result,
// and publishes a snapshot to subscribers.
func (m *Manager) mutate(fn func(s *State)) {
	m.mu.Lock()
	fn(&m.state)
	snap := m.state.clone()
	if m.store != nil {
		if err := m.store.Save(&m.state); err != nil {
			m.log.Warnw("persisting session state", "error", err)
		}
	}
	for _, ch := range m.subs {
		// Latest-wins: displace a stale snapshot rather than block.
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	m.mu.Unlock()
}

// pushCode prepends a status history entry and truncates to the bound.
// Callers hold the state lock via mutate.
func pushCode(s *State, ack Acknowledgement, code string) {
	entry := StatusCode{Acknowledgement: ack, StatusCode: code}
	s.StatusCodes = append([]StatusCode{entry}, s.StatusCodes...)
	dropped := false
	if len(s.StatusCodes) > MaxStatusCodes {
		s.StatusCodes = s.StatusCodes[:MaxStatusCodes]
		dropped = true
	}
	metrics.Global.RecordStatusCode(dropped)
}

// HandleStatusCode prepends a new status history entry and truncates to
// the history bound.
func (m *Manager) HandleStatusCode(ack Acknowledgement, code string) {
	m.mutate(func(s *State) {
		pushCode(s, ack, code)
	})
}

// SetPaired records the pairing status.
func (m *Manager) SetPaired(status PairingStatus) {
	m.mutate(func(s *State) {
		s.Pairing = status
	})
}

// Paired returns the synchronously-current pairing status.
func (m *Manager) Paired() PairingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Pairing
}

// SetImporting records whether an import workflow is active.
func (m *Manager) SetImporting(importing bool) {
	m.mutate(func(s *State) {
		s.Importing = importing
	})
}

// IsImporting returns the synchronously-current importing flag,
// bypassing any rendering lag a subscriber may have.
func (m *Manager) IsImporting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Importing
}

// CancelImport clears the importing flag and the status history as one
// compound mutation; subscribers never observe one without the other.
func (m *Manager) CancelImport() {
	m.mutate(func(s *State) {
		s.Importing = false
		s.StatusCodes = nil
	})
}

// ResetStatusCodes clears the status history only.
func (m *Manager) ResetStatusCodes() {
	m.mutate(func(s *State) {
		s.StatusCodes = nil
	})
}

// StatusCodes returns a copy of the status history, newest first.
func (m *Manager) StatusCodes() []StatusCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StatusCode, len(m.state.StatusCodes))
	copy(out, m.state.StatusCodes)
	return out
}

// LastError returns the most recent transport error, or nil.
func (m *Manager) LastError() *TransportError {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.LastError == nil {
		return nil
	}
	e := *m.state.LastError
	return &e
}

// LastResponse returns the most recent successful response, or nil.
func (m *Manager) LastResponse() *TransportResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.LastResponse == nil {
		return nil
	}
	r := *m.state.LastResponse
	return &r
}

// Device returns the cached device identity, or nil.
func (m *Manager) Device() *transport.DeviceInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Device == nil {
		return nil
	}
	d := *m.state.Device
	return &d
}

// CheckPaired probes whether a transport session can be opened. It
// swallows all error detail, reducing to a boolean, and mutates no
// session state.
func (m *Manager) CheckPaired(ctx context.Context) bool {
	if err := m.probes.Wait(ctx); err != nil {
		return false
	}

	t, err := m.factory.Open(ctx)
	paired := err == nil
	if paired {
		_ = t.Close()
	}

	metrics.Global.RecordProbe(paired)
	m.log.Debugw("pairing probe", "paired", paired)
	return paired
}

// Run executes the requested tasks against the device. Task failures
// never propagate to the caller: they are classified into the two-kind
// taxonomy and written to the transport-error slot for the presentation
// layer to observe. Run itself fails only on input validation or when
// another sequence is already in flight.
func (m *Manager) Run(ctx context.Context, tasks []Task, opts Options) error {
	if len(tasks) == 0 {
		return dlerr.ErrNoTasks
	}
	requested := make(map[Task]bool, len(tasks))
	for _, t := range tasks {
		if _, err := ParseTask(string(t)); err != nil {
			return err
		}
		requested[t] = true
	}

	if !m.inFlight.CompareAndSwap(false, true) {
		return dlerr.ErrTaskInFlight
	}
	defer m.inFlight.Store(false)

	runID := uuid.NewString()
	m.log.Infow("device task sequence started",
		"run_id", runID, "tasks", tasks, "account", opts.AccountIndex)

	var firstErr error
	infoFailed := false

	if requested[TaskGetDeviceInfo] {
		if err := m.runDeviceInfo(ctx); err != nil {
			infoFailed = true
			firstErr = err
			m.log.Warnw("device info task failed", "run_id", runID, "error", err)
		}
	}

	// The transport channel is not reused across logical request types:
	// the address phase always opens its own session.
	if !infoFailed {
		if err := m.runAddressPhase(ctx, requested[TaskGetAddress], opts); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			m.log.Warnw("address task failed", "run_id", runID, "error", err)
		}
	}

	metrics.Global.RecordDeviceOp(firstErr)
	m.log.Infow("device task sequence finished", "run_id", runID, "failed", firstErr != nil)
	return nil
}

// runDeviceInfo opens a transport, caches the device identity, and
// closes the transport. The handle is released on every exit path.
func (m *Manager) runDeviceInfo(ctx context.Context) error {
	t, err := m.openTransport(ctx)
	if err != nil {
		m.recordFailure(err)
		return err
	}
	defer func() { _ = t.Close() }()

	info := t.Info()
	m.mutate(func(s *State) {
		s.Device = &info
		s.LastResponse = &TransportResponse{
			Acknowledgement: AckSuccess,
			StatusCode:      CodeReceivedDeviceInfo,
			Device:          &info,
		}
		pushCode(s, AckSuccess, CodeReceivedDeviceInfo)
	})
	return nil
}

// runAddressPhase opens an independent transport session and, when
// requested, performs the address-fetch sub-routine over it.
func (m *Manager) runAddressPhase(ctx context.Context, fetchAddress bool, opts Options) error {
	t, err := m.openTransport(ctx)
	if err != nil {
		m.recordFailure(err)
		return err
	}
	defer func() { _ = t.Close() }()

	if !fetchAddress {
		return nil
	}

	if err := m.fetchAddress(ctx, t, opts); err != nil {
		m.recordFailure(err)
		return err
	}
	return nil
}

// fetchAddress constructs a protocol client over the open transport,
// announces an in-progress status, and derives the account address at
// the fixed path template.
func (m *Manager) fetchAddress(ctx context.Context, t transport.Transport, opts Options) error {
	client := m.newClient(t)

	m.mutate(func(s *State) {
		s.LastResponse = &TransportResponse{
			Acknowledgement: AckSuccess,
			StatusCode:      CodeDerivingAddress,
			AccountIndex:    opts.AccountIndex,
		}
		pushCode(s, AckSuccess, CodeDerivingAddress)
	})

	path := substrate.NewPath(opts.AccountIndex)
	result, err := client.GetAddress(ctx, path, opts.ConfirmAddress)
	if err != nil {
		return err
	}

	info := t.Info()
	m.mutate(func(s *State) {
		s.Device = &info
		s.LastResponse = &TransportResponse{
			Acknowledgement: AckSuccess,
			StatusCode:      CodeReceivedAddress,
			AccountIndex:    opts.AccountIndex,
			ConfirmAddress:  opts.ConfirmAddress,
			Device:          &info,
			Body:            []string{result.Address},
		}
		pushCode(s, AckSuccess, CodeReceivedAddress)
	})
	return nil
}

// openTransport opens a transport and records the attempt.
func (m *Manager) openTransport(ctx context.Context) (transport.Transport, error) {
	start := time.Now()
	t, err := m.factory.Open(ctx)
	metrics.Global.RecordTransportOpen(time.Since(start), err)
	return t, err
}

// recordFailure classifies an error into the two-kind taxonomy and
// overwrites the transport-error slot. DeviceNotConnected is reserved
// for the transport's explicit "no device" signal; everything else is
// reported as the app being closed.
func (m *Manager) recordFailure(err error) {
	code := CodeAppNotOpen
	if dlerr.Is(err, dlerr.ErrDeviceNotConnected) {
		code = CodeDeviceNotConnected
	}
	m.mutate(func(s *State) {
		s.LastError = &TransportError{
			Acknowledgement: AckFailure,
			StatusCode:      code,
		}
		pushCode(s, AckFailure, code)
	})
}
