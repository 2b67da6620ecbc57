package mailer

import (
	"log"
	"sync"
	"time"
)

type Email struct {
	To      string
	Subject string
	HTML    string
	Retry   int
}

// Queue sends emails from a bounded channel on a fixed number of workers.
// Enqueue never blocks and never reports delivery failures to the caller.
type Queue struct {
	mailer     Mailer
	jobQueue   chan Email
	workers    int
	maxRetries int
	backoff    time.Duration
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
}

func NewQueue(mailer Mailer, workers int) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		mailer:     mailer,
		jobQueue:   make(chan Email, 1000),
		workers:    workers,
		maxRetries: 3,
		backoff:    time.Second,
	}
}

func (q *Queue) Start() {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	log.Printf("Email queue started with %d workers", q.workers)
}

// Stop drains queued emails and waits for the workers to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.jobQueue)
	q.mu.Unlock()

	q.wg.Wait()
	log.Println("Email queue stopped")
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for job := range q.jobQueue {
		q.process(job)
	}
}

func (q *Queue) process(job Email) {
	for {
		err := q.mailer.Send(job.To, job.Subject, job.HTML)
		if err == nil {
			return
		}
		log.Printf("Failed to send email to %s (attempt %d): %v", job.To, job.Retry+1, err)
		if job.Retry >= q.maxRetries {
			log.Printf("Giving up on email to %s: %s", job.To, job.Subject)
			return
		}
		job.Retry++
		time.Sleep(q.backoff * time.Duration(job.Retry))
	}
}

// Enqueue implements fire-and-forget delivery.
func (q *Queue) Enqueue(to, subject, html string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running || to == "" {
		return
	}

	select {
	case q.jobQueue <- Email{To: to, Subject: subject, HTML: html}:
	default:
		// Queue is full, log and skip
		log.Printf("Email queue full, dropping message to %s", to)
	}
}
