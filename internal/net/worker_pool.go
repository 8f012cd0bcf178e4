package net

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

type workerFunction = func(t *tomb.Tomb, task any) error

// workerPool maintains a fixed-size pool of goroutines draining a shared task channel,
// supervised by a tomb so a worker's error tears down the whole pool.
type workerPool struct {
	n     int // number of workers
	tasks chan any
	work  workerFunction
}

func newWorkerPool(size uint) workerPool {
	return workerPool{
		n:     int(size),
		tasks: make(chan any, taskChanSize),
	}
}

// AddTask enqueues a unit of work for some idle worker to pick up.
func (pool *workerPool) AddTask(task any) {
	pool.tasks <- task
}

// Setup keeps exactly pool.n workers alive against t, restarting none of its own accord
// once a worker exits; each worker exits only when t is dying or its channel closes.
func (pool *workerPool) Setup(t *tomb.Tomb, work workerFunction) {
	pool.work = work
	for id := 0; id < pool.n; id++ {
		workerID := id
		t.Go(func() error {
			return pool.worker(t, workerID)
		})
	}
}

// worker waits on tasks in the shared channel and actions them until the tomb dies or
// the channel is drained and closed.
func (pool *workerPool) worker(t *tomb.Tomb, id int) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task, ok := <-pool.tasks:
			if !ok {
				return nil
			}
			if err := pool.work(t, task); err != nil {
				log.Error().Err(err).Int("worker", id).Msg("worker exiting")
				return err
			}
		}
	}
}
