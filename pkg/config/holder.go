package config

import (
	"context"
	"sync/atomic"
)

// Holder guarda as Settings correntes e permite recarregá-las sem reiniciar
// o processo. Leitores sempre recebem um snapshot imutável.
type Holder struct {
	loader  *Loader
	source  string
	current atomic.Pointer[Settings]
}

// NewHolder cria um Holder já carregado com initial.
func NewHolder(loader *Loader, source string, initial *Settings) *Holder {
	h := &Holder{loader: loader, source: source}
	h.current.Store(initial)
	return h
}

// Get retorna o snapshot atual.
func (h *Holder) Get() *Settings {
	return h.current.Load()
}

// Reload relê a fonte. Em caso de erro o snapshot anterior é mantido.
func (h *Holder) Reload(ctx context.Context) error {
	cfg, err := h.loader.Load(ctx, h.source)
	if err != nil {
		return err
	}
	h.current.Store(cfg)
	return nil
}
