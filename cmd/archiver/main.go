// cmd/archiver/main.go is an asynchronous worker that pops finished-match
// records from the Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"github.com/kaansenol/hangduel/internal/cache"
	"github.com/kaansenol/hangduel/internal/database"
)

// ArchiverService drains the match-record queue into the database in small
// batches.
type ArchiverService struct {
	redisClient *redis.Client
	queueName   string
	batchSize   int
	flushDelay  time.Duration

	batchMu  sync.Mutex
	batch    []cache.MatchRecord
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewArchiverService constructs an ArchiverService from environment
// variables or defaults.
func NewArchiverService() *ArchiverService {
	batchSize := getEnvInt("ARCHIVER_BATCH_SIZE", 20)
	flushMs := getEnvInt("ARCHIVER_FLUSH_MS", 500)

	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &ArchiverService{
		redisClient: rdb,
		queueName:   getEnv("HISTORY_QUEUE_NAME", cache.DefaultQueueName),
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		batch:       make([]cache.MatchRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run connects to the database and starts the queue reader. It returns when
// the service is stopped.
func (as *ArchiverService) Run() {
	database.ConnectDB()

	go as.readQueueLoop()

	log.Println("hangduel-archiver service started.")
	<-as.ctx.Done()
	as.flushBatchToDB()
	log.Println("hangduel-archiver shutting down.")
}

// readQueueLoop continuously uses BLPop to retrieve records from the queue
// and flushes the accumulated batch on a timer.
func (as *ArchiverService) readQueueLoop() {
	ticker := time.NewTicker(as.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-as.ctx.Done():
			return

		case <-ticker.C:
			as.flushBatchToDB()

		default:
			// BLPop with a short timeout so context cancellation is noticed.
			res, err := as.redisClient.BLPop(as.ctx, 3*time.Second, as.queueName).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				if as.ctx.Err() != nil {
					return
				}
				log.Printf("[ERROR] BLPop: %v\n", err)
				continue
			}
			if len(res) < 2 {
				continue
			}

			var rec cache.MatchRecord
			if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
				log.Printf("invalid match record: %v\n", err)
				continue
			}
			as.appendToBatch(rec)
		}
	}
}

// appendToBatch adds a record and flushes when the threshold is reached.
func (as *ArchiverService) appendToBatch(rec cache.MatchRecord) {
	as.batchMu.Lock()
	defer as.batchMu.Unlock()

	as.batch = append(as.batch, rec)
	if len(as.batch) >= as.batchSize {
		as.flushLocked()
	}
}

// flushBatchToDB flushes the current batch to the database.
func (as *ArchiverService) flushBatchToDB() {
	as.batchMu.Lock()
	defer as.batchMu.Unlock()
	as.flushLocked()
}

func (as *ArchiverService) flushLocked() {
	if len(as.batch) == 0 {
		return
	}
	batchCopy := make([]cache.MatchRecord, len(as.batch))
	copy(batchCopy, as.batch)
	as.batch = as.batch[:0]

	if err := database.InsertMatchRecords(context.Background(), batchCopy); err != nil {
		log.Printf("[ERROR] flush match records: %v\n", err)
	} else {
		log.Printf("Flushed %d match records to DB.\n", len(batchCopy))
	}
}

// Stop gracefully stops the archiver.
func (as *ArchiverService) Stop() {
	as.cancelFn()
}

func main() {
	as := NewArchiverService()
	go as.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	as.Stop()
	log.Println("Archiver shutdown complete.")
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer from an environment variable or returns a default.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
