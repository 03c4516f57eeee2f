// Package tasks runs detached units of work (things that must not block a response) behind an
// error boundary so that failures end up in telemetry instead of disappearing.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"challan-backend/internal/components/telemetry"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

const report_executor_task = "executor.task"

// Task is a named unit of detached work. The context it receives is not the caller's request
// context, it lives until the task finishes or the executor is drained.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Executor is the interface workflows use to hand off side effects.
//
// note: fault injection point
type Executor interface {
	Submit(task Task)
}

// queuePerWorker is how many submitted tasks may wait per worker before Submit starts dropping.
const queuePerWorker = 64

// PoolExecutor runs tasks on a bounded goroutine pool. Submit never blocks: tasks wait in a
// bounded queue and are dropped with a warning once it is full.
type PoolExecutor struct {
	tel   telemetry.API
	pool  *pool.Pool
	ctx   context.Context
	queue chan Task
	done  chan struct{}

	// guards queue against Submit after Drain
	mutex   sync.Mutex
	drained bool
}

// NewPoolExecutor creates an executor running at most `workers` tasks concurrently.
func NewPoolExecutor(tel telemetry.API, workers int) *PoolExecutor {
	if workers <= 0 {
		workers = 4
	}
	e := &PoolExecutor{
		tel:   telemetry.NewScopedAPI("tasks", tel),
		pool:  pool.New().WithMaxGoroutines(workers),
		ctx:   context.Background(),
		queue: make(chan Task, workers*queuePerWorker),
		done:  make(chan struct{}),
	}
	go e.dispatch()
	return e
}

// dispatch feeds queued tasks to the pool, pool.Go blocks here instead of in Submit.
func (e *PoolExecutor) dispatch() {
	for task := range e.queue {
		task := task
		e.pool.Go(func() {
			runGuarded(e.ctx, e.tel, task)
		})
	}
	e.pool.Wait()
	close(e.done)
}

// Submit queues the task and returns immediately.
func (e *PoolExecutor) Submit(task Task) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.drained {
		e.tel.ReportWarning(report_executor_task, fmt.Errorf("submitted after drain"), task.Name)
		return
	}

	select {
	case e.queue <- task:
		e.tel.ReportDebug("submit", task.Name)
	default:
		e.tel.ReportWarning(report_executor_task, fmt.Errorf("queue full, task dropped"), task.Name)
	}
}

// Drain stops accepting tasks and waits for the queued and running ones, or until ctx is done.
func (e *PoolExecutor) Drain(ctx context.Context) error {
	e.mutex.Lock()
	if !e.drained {
		e.drained = true
		close(e.queue)
	}
	e.mutex.Unlock()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runGuarded(ctx context.Context, tel telemetry.API, task Task) {
	var err error
	var catcher panics.Catcher
	catcher.Try(func() {
		err = task.Run(ctx)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		tel.ReportBroken(report_executor_task, recovered.AsError(), task.Name)
		return
	}
	if err != nil {
		tel.ReportBroken(report_executor_task, err, task.Name)
	}
}

// InlineExecutor runs every task synchronously inside Submit, it is meant for tests and CLIs
// that exit right after the workflow.
type InlineExecutor struct {
	Tel telemetry.API
}

func (e InlineExecutor) Submit(task Task) {
	tel := e.Tel
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	runGuarded(context.Background(), tel, task)
}
