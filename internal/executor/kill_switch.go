package executor

import (
	"sync"
	"time"
)

// KillSwitch аварийная остановка торговли. Пока активен, executor
// отклоняет любые intent без обращения к сети. Снимается только
// явной командой оператора.
type KillSwitch struct {
	mu          sync.RWMutex
	active      bool
	activatedAt time.Time
	reason      string
}

func NewKillSwitch() *KillSwitch {
	return &KillSwitch{}
}

// Activate активирует kill switch
func (ks *KillSwitch) Activate(reason string) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.active = true
	ks.activatedAt = time.Now()
	ks.reason = reason
}

// Deactivate деактивирует kill switch
func (ks *KillSwitch) Deactivate() {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.active = false
	ks.reason = ""
}

// IsActive проверяет активен ли kill switch
func (ks *KillSwitch) IsActive() bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.active
}

// Status возвращает состояние kill switch
func (ks *KillSwitch) Status() (bool, string, time.Time) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.active, ks.reason, ks.activatedAt
}
