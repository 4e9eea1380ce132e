package session

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/pidview/arena"
	"github.com/wippyai/pidview/engine"
	"github.com/wippyai/pidview/errors"
	"github.com/wippyai/pidview/frame"
	"github.com/wippyai/pidview/present"
	"github.com/wippyai/pidview/source"
)

// Config holds configuration for a Decoder.
type Config struct {
	// Engine configures the wazero engine and the guest. nil means defaults.
	Engine *engine.Config

	// Logger receives session logs. nil means engine.Logger().
	Logger *zap.Logger

	// Instances is the number of guest instances kept for concurrent
	// sessions. 0 means 1.
	Instances int

	// CacheEntries is the number of decoded frames kept by input digest.
	// 0 disables the cache.
	CacheEntries int
}

// slot pairs a guest instance with the arena that lives in its memory.
// A slot is held by at most one session at a time.
type slot struct {
	inst  *engine.Instance
	arena *arena.Arena
}

// Decoder turns PID buffers into frames. It is safe for concurrent use;
// each concurrent session runs on its own guest instance.
type Decoder struct {
	engine *engine.Engine
	log    *zap.Logger
	cache  *frameCache
	slots  chan *slot
	size   int

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New creates the engine and the instance pool.
func New(ctx context.Context, cfg Config) (*Decoder, error) {
	if cfg.Instances < 0 || cfg.CacheEntries < 0 {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "negative pool or cache size")
	}
	if cfg.Instances == 0 {
		cfg.Instances = 1
	}
	log := cfg.Logger
	if log == nil {
		log = engine.Logger()
	}

	eng, err := engine.New(ctx, cfg.Engine)
	if err != nil {
		return nil, err
	}

	d := &Decoder{
		engine: eng,
		log:    log,
		slots:  make(chan *slot, cfg.Instances),
		size:   cfg.Instances,
	}
	for i := 0; i < cfg.Instances; i++ {
		s := &slot{}
		err := d.fill(ctx, s)
		d.slots <- s
		if err != nil {
			d.size = i + 1
			return nil, multierr.Append(err, d.Close(ctx))
		}
	}

	if cfg.CacheEntries > 0 {
		c, err := newFrameCache(cfg.CacheEntries)
		if err != nil {
			cerr := errors.Wrap(errors.PhaseRuntime, errors.KindInstantiation, err, "create frame cache")
			return nil, multierr.Append(cerr, d.Close(ctx))
		}
		d.cache = c
	}

	log.Debug("decoder ready",
		zap.Int("instances", cfg.Instances),
		zap.Int("cache_entries", cfg.CacheEntries),
		zap.Uint32("limit_pages", eng.LimitPages()))
	return d, nil
}

// fill gives s a fresh instance and an arena sized to it.
func (d *Decoder) fill(ctx context.Context, s *slot) error {
	inst, err := d.engine.Instantiate(ctx)
	if err != nil {
		return err
	}
	s.inst = inst
	s.arena = arena.New(inst.Capacity())
	return nil
}

// NewSession binds src to a free instance. It blocks until an instance is
// available or ctx is done.
func (d *Decoder) NewSession(ctx context.Context, src *source.Buffer) (*Session, error) {
	if src == nil {
		return nil, errors.InvalidInput(errors.PhaseBind, "nil source buffer")
	}
	if d.closed.Load() {
		return nil, errors.NotInitialized(errors.PhaseBind, "decoder")
	}

	var s *slot
	select {
	case s = <-d.slots:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if s.inst == nil {
		if err := d.fill(ctx, s); err != nil {
			d.slots <- s
			return nil, err
		}
	}

	sess, err := newSession(d, s, src)
	if err != nil {
		d.slots <- s
		return nil, err
	}
	return sess, nil
}

// Decode runs one complete session for src and returns its frame.
func (d *Decoder) Decode(ctx context.Context, src *source.Buffer) (f *frame.Frame, err error) {
	s, err := d.NewSession(ctx, src)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, s.Close(ctx))
	}()
	return s.Decode(ctx)
}

// Load is one user load event: decode src and show it on sink. On any
// failure the sink is told instead, so it never shows a blank surface
// without explanation.
func (d *Decoder) Load(ctx context.Context, src *source.Buffer, sink present.Sink) (err error) {
	s, err := d.NewSession(ctx, src)
	if err != nil {
		sink.Fail(ctx, err)
		return err
	}
	defer func() {
		err = multierr.Append(err, s.Close(ctx))
	}()

	if _, err := s.Decode(ctx); err != nil {
		sink.Fail(ctx, err)
		return err
	}
	if err := s.Present(ctx, sink); err != nil {
		sink.Fail(ctx, err)
		return err
	}
	return nil
}

// CachedFrames returns the number of frames in the cache.
func (d *Decoder) CachedFrames() int {
	if d.cache == nil {
		return 0
	}
	return d.cache.len()
}

// Close waits for every open session to close, then releases all
// instances and the engine. Calling Close more than once is a no-op.
func (d *Decoder) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		var err error
		for i := 0; i < d.size; i++ {
			s := <-d.slots
			if s.inst != nil {
				err = multierr.Append(err, s.inst.Close(ctx))
				s.inst = nil
			}
		}
		if d.cache != nil {
			d.cache.close()
		}
		d.closeErr = multierr.Append(err, d.engine.Close(ctx))
	})
	return d.closeErr
}
