package skill

import (
	"github.com/udisondev/mudcore/internal/catalog"
)

// Handler applies one effect kind. The chance roll has already passed and
// params are resolved when a handler runs.
type Handler func(ex *Executor, def *catalog.EffectDefinition, p Params, ectx *EffectContext) (EffectResult, error)

func defaultHandlers() map[catalog.EffectKind]Handler {
	return map[catalog.EffectKind]Handler{
		catalog.EffectDamage:    handleDamage,
		catalog.EffectHeal:      handleHeal,
		catalog.EffectModify:    handleModify,
		catalog.EffectStatus:    handleStatus,
		catalog.EffectCleanse:   handleCleanse,
		catalog.EffectDispel:    handleDispel,
		catalog.EffectMove:      handleMove,
		catalog.EffectInterrupt: handleInterrupt,
	}
}

// RegisterHandler replaces the handler of an effect kind.
// Not safe to call concurrently with Execute.
func (ex *Executor) RegisterHandler(kind catalog.EffectKind, h Handler) {
	ex.handlers[kind] = h
}
