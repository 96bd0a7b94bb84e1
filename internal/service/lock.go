package service

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Возвращается когда блокировку матча не удалось захватить за отведенное
// время. Мутация при этом не применялась вовсе, повтор безопасен
var ErrLockTimeout = errors.New("таймаут ожидания блокировки матча")

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// KeyedLock - взаимное исключение по ключу матча. Операции по разным
// ключам идут полностью параллельно, по одному ключу - строго по очереди
// в порядке захвата
type KeyedLock struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{entries: make(map[string]*lockEntry)}
}

// Acquire блокирует ключ не дольше timeout. Возвращает функцию release,
// которую нужно вызвать на каждом пути выхода
func (l *KeyedLock) Acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		release := func() {
			once.Do(func() {
				<-e.sem
				l.put(key, e)
			})
		}
		return release, nil
	case <-timer.C:
		l.put(key, e)
		return nil, ErrLockTimeout
	case <-ctx.Done():
		l.put(key, e)
		return nil, ctx.Err()
	}
}

// put уменьшает счетчик ссылок и убирает запись, когда она никому
// не нужна, чтобы map не рос бесконечно
func (l *KeyedLock) put(key string, e *lockEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}
