package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"calmi-backend/internal/models"
	"calmi-backend/internal/services"
)

const (
	maxJobRetries     = 3
	defaultPopTimeout = 30 * time.Second
	redisErrorBackoff = time.Second
	lockTTL           = 10 * time.Minute
)

type jobProcessor interface {
	ProcessJob(ctx context.Context, job *models.PaymentJob) error
	Requeue(ctx context.Context, job *models.PaymentJob) error
}

// Pool drains the payment event queue with a fixed number of goroutines.
type Pool struct {
	redis       *redis.Client
	processor   jobProcessor
	workerCount int
	popTimeout  time.Duration
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

func NewPool(redisClient *redis.Client, processor jobProcessor, workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{
		redis:       redisClient,
		processor:   processor,
		workerCount: workerCount,
		popTimeout:  defaultPopTimeout,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Printf("Started %d payment worker goroutines", p.workerCount)
}

// Stop signals the workers and waits for in-flight jobs. A worker blocked in
// BLPOP notices within the pop timeout.
func (p *Pool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, p.popTimeout, services.PaymentQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				// Redis is down; don't spin.
				p.pause(redisErrorBackoff)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.PaymentJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse payment job: %v", id, err)
			continue
		}

		p.handle(ctx, id, &job)
	}
}

func (p *Pool) pause(d time.Duration) {
	select {
	case <-p.stopChan:
	case <-time.After(d):
	}
}

func (p *Pool) handle(ctx context.Context, id int, job *models.PaymentJob) {
	// Paystack retries deliveries; only one worker acts on a given event.
	lockKey := lockKeyFor(job)
	locked, err := p.redis.SetNX(ctx, lockKey, job.ID.String(), lockTTL).Result()
	if err != nil || !locked {
		return
	}

	log.Printf("Worker %d: processing %s for %s", id, job.Event, job.Reference)

	if err := p.processor.ProcessJob(ctx, job); err != nil {
		p.redis.Del(ctx, lockKey)
		p.handleFailure(ctx, job, err)
		return
	}

	log.Printf("Payment job %s completed", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.PaymentJob, err error) {
	job.RetryCount++

	if job.RetryCount >= maxJobRetries {
		log.Printf("Payment job %s failed permanently: %v", job.ID, err)
		return
	}

	log.Printf("Payment job %s failed (attempt %d): %v, retrying", job.ID, job.RetryCount, err)
	backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
	time.AfterFunc(backoff, func() {
		if err := p.processor.Requeue(context.Background(), job); err != nil {
			log.Printf("Payment job %s could not be requeued: %v", job.ID, err)
		}
	})
}

func lockKeyFor(job *models.PaymentJob) string {
	return fmt.Sprintf("payment_event_lock:%s:%s", job.Event, job.Reference)
}
