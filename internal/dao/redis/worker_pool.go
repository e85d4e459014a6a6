package redis

import (
	"go.uber.org/zap"
)

// workerPool drains cache update closures off the request path.
type workerPool struct {
	tasks chan func()
}

func newWorkerPool(workers, buffer int) *workerPool {
	p := &workerPool{tasks: make(chan func(), buffer)}
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *workerPool) run() {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("cache worker panic", zap.Any("recover", r))
			go p.run() // restart the worker
		}
	}()
	for task := range p.tasks {
		if task != nil {
			task()
		}
	}
}

// submit enqueues a task, executing it synchronously when the queue is
// full so updates are never dropped.
func (p *workerPool) submit(action func()) {
	select {
	case p.tasks <- action:
	default:
		zap.L().Warn("cache task queue full, executing synchronously")
		action()
	}
}
