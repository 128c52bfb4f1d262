package viewer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cine-viewer/internal/app"
	"cine-viewer/internal/config"
)

// Speeds lists the playback multipliers offered by the UI.
var Speeds = []float64{0.5, 1, 1.5, 2}

const minPeriod = time.Millisecond

// Player advances a Navigator on a timer. One loop goroutine runs while
// playing; Pause and end-of-stack stop it, Close stops it for good. Each
// loop's stop channel identifies its play session: a tick only changes
// player state while its session is still the current one.
type Player struct {
	nav    *Navigator
	clock  Clock
	base   time.Duration
	policy config.EndPolicy
	state  *app.State
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	speed    float64
	lastTick time.Time
	stop     chan struct{}
	done     chan struct{}
	resched  chan struct{}
	// ticking is the stop channel of the session whose tick is executing.
	ticking chan struct{}
	loops   sync.WaitGroup
}

func newPlayer(nav *Navigator, clock Clock, base time.Duration, policy config.EndPolicy, speed float64, state *app.State, logger *slog.Logger) *Player {
	if clock == nil {
		clock = SystemClock{}
	}
	if speed <= 0 {
		speed = 1
	}
	return &Player{
		nav:    nav,
		clock:  clock,
		base:   base,
		policy: policy,
		speed:  speed,
		state:  state,
		logger: logger.With(slog.String("component", "player")),
	}
}

// IsPlaying reports whether the playback loop is running.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Speed returns the current speed multiplier.
func (p *Player) Speed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

// BaseInterval returns the frame interval at 1x speed.
func (p *Player) BaseInterval() time.Duration {
	return p.base
}

func (p *Player) periodLocked() time.Duration {
	d := time.Duration(float64(p.base) / p.speed)
	if d < minPeriod {
		d = minPeriod
	}
	return d
}

// Play starts playback. It does nothing while already playing, after Close,
// or when the stack has a single frame. Playing from the last frame under
// the hold policy starts over from the first frame.
func (p *Player) Play() {
	if !p.nav.Navigable() {
		p.logger.Debug("play ignored, stack not navigable")
		return
	}
	if p.policy == config.EndHold && p.nav.Index() == p.nav.Count()-1 && !p.IsPlaying() {
		p.nav.Seek(0)
	}

	p.mu.Lock()
	if p.running || p.closed {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.lastTick = p.clock.Now()
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.resched = make(chan struct{}, 1)
	timer := p.clock.NewTimer(p.periodLocked())
	p.loops.Add(1)
	go p.loop(timer, p.stop, p.done, p.resched)
	speed := p.speed
	p.mu.Unlock()

	p.logger.Debug("playback started", slog.Float64("speed", speed))
	p.state.Emit(app.EventPlaybackChanged, app.PlaybackChanged{Playing: true, Speed: speed})
}

// Pause stops playback. Unless the session is in the middle of a tick, it
// returns only after the loop has exited.
func (p *Player) Pause() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	done, speed := p.done, p.speed
	inTick := p.ticking != nil && p.ticking == p.stop
	p.mu.Unlock()

	if !inTick {
		<-done
	}
	p.logger.Debug("playback paused", slog.Int("index", p.nav.Index()))
	p.state.Emit(app.EventPlaybackChanged, app.PlaybackChanged{Playing: false, Speed: speed})
}

// Toggle plays when paused and pauses when playing.
func (p *Player) Toggle() {
	if p.IsPlaying() {
		p.Pause()
		return
	}
	p.Play()
}

// SetSpeed changes the speed multiplier. While playing, the pending tick is
// moved to lastTick plus the new period, or now if that already passed.
func (p *Player) SetSpeed(m float64) error {
	if m <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, m)
	}

	p.mu.Lock()
	p.speed = m
	running := p.running
	if running {
		select {
		case p.resched <- struct{}{}:
		default:
		}
	}
	p.mu.Unlock()

	p.state.Emit(app.EventPlaybackChanged, app.PlaybackChanged{Playing: running, Speed: m})
	return nil
}

// Close stops playback permanently and waits for every loop to exit. It
// must not be called from an event listener running inside a tick.
func (p *Player) Close() {
	p.mu.Lock()
	p.closed = true
	wasRunning := p.running
	if p.running {
		p.running = false
		close(p.stop)
	}
	p.mu.Unlock()

	p.loops.Wait()
	if wasRunning {
		p.logger.Debug("playback closed")
	}
}

func (p *Player) loop(timer Timer, stop chan struct{}, done chan<- struct{}, resched <-chan struct{}) {
	defer p.loops.Done()
	defer close(done)
	defer func() { timer.Stop() }()

	for {
		select {
		case <-stop:
			return
		case <-resched:
			timer.Stop()
			p.mu.Lock()
			next := p.lastTick.Add(p.periodLocked())
			p.mu.Unlock()
			d := next.Sub(p.clock.Now())
			if d < 0 {
				d = 0
			}
			timer = p.clock.NewTimer(d)
		case <-timer.C():
			select {
			case <-stop:
				return
			default:
			}
			if !p.tick(stop) {
				return
			}
			p.mu.Lock()
			period := p.periodLocked()
			p.mu.Unlock()
			timer = p.clock.NewTimer(period)
		}
	}
}

// tick advances one frame for the session identified by stop. It returns
// false once that session has ended.
func (p *Player) tick(stop chan struct{}) bool {
	p.mu.Lock()
	p.ticking = stop
	if p.stop == stop {
		p.lastTick = p.clock.Now()
	}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		if p.ticking == stop {
			p.ticking = nil
		}
		p.mu.Unlock()
	}()

	if p.nav.Index()+1 < p.nav.Count() {
		if p.nav.Step(1) {
			return true
		}
		p.logger.Warn("tick could not advance, stopping", slog.Int("index", p.nav.Index()))
	}

	p.mu.Lock()
	if !p.running || p.stop != stop {
		// Paused, or superseded by a later Play.
		p.mu.Unlock()
		return false
	}
	p.running = false
	speed := p.speed
	p.mu.Unlock()

	if p.policy == config.EndWrap {
		p.nav.Seek(0)
	}
	p.logger.Debug("playback reached end", slog.String("policy", p.policy.String()), slog.Int("index", p.nav.Index()))
	p.state.Emit(app.EventPlaybackChanged, app.PlaybackChanged{Playing: false, Speed: speed})
	return false
}
