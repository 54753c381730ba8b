package hotkey

import (
	"sync"

	"golang.design/x/hotkey"
)

// Source delivers raw keydown and keyup events for one registered chord.
type Source interface {
	Register() error
	Unregister() error
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// systemSource adapts golang.design/x/hotkey to Source.
type systemSource struct {
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
	stop    chan struct{}
	once    sync.Once
}

// NewSource prepares a system-wide hotkey for b. Nothing is grabbed until Register.
func NewSource(b Binding) (Source, error) {
	mods, key, err := resolve(b)
	if err != nil {
		return nil, err
	}
	return &systemSource{
		hk:      hotkey.New(mods, key),
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}, nil
}

func (s *systemSource) Register() error {
	if err := s.hk.Register(); err != nil {
		return err
	}
	go forward(s.hk.Keydown(), s.keydown, s.stop)
	go forward(s.hk.Keyup(), s.keyup, s.stop)
	return nil
}

func (s *systemSource) Unregister() error {
	s.once.Do(func() { close(s.stop) })
	return s.hk.Unregister()
}

func (s *systemSource) Keydown() <-chan struct{} { return s.keydown }
func (s *systemSource) Keyup() <-chan struct{}   { return s.keyup }

func forward(in <-chan hotkey.Event, out chan<- struct{}, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case _, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- struct{}{}:
			case <-stop:
				return
			}
		}
	}
}
