package lockcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/warpdl/warplock/common"
)

// ErrDisconnect may be returned by a Handler to stop Listen without an
// error.
var ErrDisconnect = errors.New("disconnect")

// Dispatcher routes pushed notifications to their handlers.
type Dispatcher struct {
	mu       sync.RWMutex
	Handlers map[common.UpdateType][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{Handlers: make(map[common.UpdateType][]Handler)}
}

// AddHandler registers h for notifications of type utype.
func (d *Dispatcher) AddHandler(utype common.UpdateType, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Handlers[utype] = append(d.Handlers[utype], h)
}

// RemoveHandlers drops every handler of utype.
func (d *Dispatcher) RemoveHandlers(utype common.UpdateType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.Handlers, utype)
}

// process decodes a pushed message and runs its handlers. Notifications
// without a handler are ignored.
func (d *Dispatcher) process(buf []byte) error {
	var res Response
	if err := json.Unmarshal(buf, &res); err != nil {
		return fmt.Errorf("failed to parse (%s): '%s'", err.Error(), string(buf))
	}
	return d.dispatch(&res)
}

func (d *Dispatcher) dispatch(res *Response) error {
	if !res.Ok {
		return errors.New(res.Error)
	}
	if res.Update == nil {
		return nil
	}
	d.mu.RLock()
	handlers := append([]Handler(nil), d.Handlers[res.Update.Type]...)
	d.mu.RUnlock()
	for _, h := range handlers {
		if err := h.Handle(res.Update.Message); err != nil {
			return err
		}
	}
	return nil
}
