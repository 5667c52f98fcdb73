// Package upload implements the bounded-concurrency upload engine: it reads
// a local file, splits it into blocks, replicates each block across
// balancer-assigned storages, retries transient failures, and durably
// records placement in the catalog with resumable semantics.
//
// A block replica that is still failing once the plaintext stream is
// exhausted and the in-flight set has drained gets one further, second-pass
// attempt before Upload gives up on it; see collectOutcomes and retryFailed.
package upload

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/marmos91/cloudraid/internal/logger"
	"github.com/marmos91/cloudraid/pkg/balancer"
	"github.com/marmos91/cloudraid/pkg/catalog"
	"github.com/marmos91/cloudraid/pkg/checksum"
	"github.com/marmos91/cloudraid/pkg/cipher"
	"github.com/marmos91/cloudraid/pkg/model"
	"github.com/marmos91/cloudraid/pkg/storage"
)

// Config tunes the engine's concurrency and retry policy.
type Config struct {
	// ParallelNum bounds the number of simultaneously in-flight block
	// replica uploads.
	ParallelNum int

	// ChunkSize is the transfer chunk size used by UploadChunked and the
	// progress model's per-chunk granularity.
	ChunkSize int

	// RepeatCount is how many attempts a single replica upload gets,
	// counting the first, before it is given up as failed within its own
	// task.
	RepeatCount int
}

func (c Config) withDefaults() Config {
	if c.ParallelNum <= 0 {
		c.ParallelNum = 4
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 64 * 1024
	}
	if c.RepeatCount <= 0 {
		c.RepeatCount = 3
	}
	return c
}

// Options describes one upload request.
type Options struct {
	// Filename is the catalog-unique name the file is recorded under.
	// Defaults to filepath.Base(path) when empty.
	Filename string

	// BlockSize, if non-zero, overrides the balancer's automatic block-size
	// policy.
	BlockSize int64

	// DuplicateCount is how many replicas each block gets. Defaults to 1.
	DuplicateCount int

	// Encrypt requests per-block encryption via the balancer's registered
	// ciphers.
	Encrypt bool
}

// FailedReplica names one block replica that remained DEAD after retries.
type FailedReplica struct {
	Number          int
	DuplicateNumber int
	Err             error
}

// Result is the outcome of one Upload call.
type Result struct {
	Filename    string
	TotalBlocks int
	Resumed     bool
	Failed      []FailedReplica
}

// Engine runs the upload pipeline against one catalog and balancer.
type Engine struct {
	catalog  *catalog.Catalog
	balancer *balancer.Balancer
	cfg      Config

	mu       sync.Mutex
	progress *Progress
}

// New builds an upload Engine.
func New(cat *catalog.Catalog, bal *balancer.Balancer, cfg Config) *Engine {
	return &Engine{catalog: cat, balancer: bal, cfg: cfg.withDefaults()}
}

// Progress returns a snapshot of the current (or most recent) upload's
// per-block-replica progress. Safe to call concurrently with Upload from a
// polling loop; only one Upload runs at a time per Engine, so a single
// shared Progress is enough.
func (e *Engine) Progress() []BlockProgress {
	e.mu.Lock()
	p := e.progress
	e.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Snapshot()
}

type replicaTask struct {
	number          int
	duplicateNumber int
	plaintext       []byte
	storage         storage.Storage
	cipher          cipher.Cipher
	keyID           *uint
	name            string
}

type replicaOutcome struct {
	task replicaTask
	size int64
	err  error // nil on success
}

// Upload reads the file at path, replicates it according to opts, and
// blocks until every block has succeeded or permanently failed.
func (e *Engine) Upload(ctx context.Context, path string, opts Options) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("upload: stat %s: %w", path, err)
	}

	filename := opts.Filename
	if filename == "" {
		filename = filepath.Base(path)
	}
	duplicateCount := opts.DuplicateCount
	if duplicateCount <= 0 {
		duplicateCount = 1
	}

	sum, err := checksumFile(path)
	if err != nil {
		return nil, fmt.Errorf("upload: checksum %s: %w", path, err)
	}

	blockSize := e.balancer.PlanBlockSize(info.Size(), opts.BlockSize)
	totalBlocks := balancer.TotalBlocks(info.Size(), blockSize)

	dbFile, resumed, err := e.catalog.AddFile(ctx, &catalog.File{
		Filename:       filename,
		Size:           info.Size(),
		TotalBlocks:    totalBlocks,
		Checksum:       sum,
		BlockSize:      blockSize,
		DuplicateCount: duplicateCount,
		Encrypted:      opts.Encrypt,
	})
	if err != nil {
		return nil, err
	}
	// A resumed file keeps the layout it was created with; a new upload
	// attempt must not silently change block_size or duplicate_count
	// mid-flight.
	blockSize = dbFile.BlockSize
	totalBlocks = dbFile.TotalBlocks
	duplicateCount = dbFile.DuplicateCount

	storageIDByToken, err := e.storageIDIndex(ctx)
	if err != nil {
		return nil, err
	}
	var keyIDByMaterial map[string]uint
	if opts.Encrypt {
		keyIDByMaterial, err = e.keyIDIndex(ctx)
		if err != nil {
			return nil, err
		}
	}

	grouped, err := e.catalog.GetBlocksGroupedByNumber(ctx, dbFile.ID)
	if err != nil {
		return nil, err
	}
	skip := make(map[int]bool, len(grouped))
	for number, replicas := range grouped {
		if len(replicas) >= duplicateCount {
			skip[number] = true
		}
	}

	progress := newProgress()
	e.mu.Lock()
	e.progress = progress
	e.mu.Unlock()

	tasks := make(chan replicaTask, e.cfg.ParallelNum*2)
	outcomes := make(chan replicaOutcome, e.cfg.ParallelNum*2)

	var produceErr error
	var produceWg sync.WaitGroup
	produceWg.Add(1)
	go func() {
		defer produceWg.Done()
		defer close(tasks)
		produceErr = e.produceBlocks(ctx, path, produceBlocksArgs{
			fileSize:       info.Size(),
			blockSize:      blockSize,
			totalBlocks:    totalBlocks,
			duplicateCount: duplicateCount,
			encrypt:        opts.Encrypt,
			skip:           skip,
			chunkSize:      e.cfg.ChunkSize,
			keyIDByMat:     keyIDByMaterial,
			progress:       progress,
			out:            tasks,
		})
	}()

	var workersWg sync.WaitGroup
	for i := 0; i < e.cfg.ParallelNum; i++ {
		workersWg.Add(1)
		go func() {
			defer workersWg.Done()
			e.worker(ctx, tasks, outcomes, progress)
		}()
	}
	go func() {
		workersWg.Wait()
		close(outcomes)
	}()

	result, failed, err := e.collectOutcomes(ctx, dbFile.ID, duplicateCount, storageIDByToken, outcomes)
	if err != nil {
		return nil, err
	}
	produceWg.Wait()
	if produceErr != nil {
		return nil, produceErr
	}

	if len(failed) > 0 {
		logger.WarnCtx(ctx, fmt.Sprintf("retrying %d failed block replica(s) in a second pass", len(failed)),
			logger.Filename(filename))
		_, failed, err = e.retryFailed(ctx, dbFile.ID, duplicateCount, storageIDByToken, progress, failed)
		if err != nil {
			return nil, err
		}
	}
	for _, f := range failed {
		result.Failed = append(result.Failed, FailedReplica{
			Number:          f.task.number,
			DuplicateNumber: f.task.duplicateNumber,
			Err:             f.err,
		})
	}

	result.Filename = filename
	result.TotalBlocks = totalBlocks
	result.Resumed = resumed
	if len(result.Failed) > 0 {
		return result, ErrUploadFailed
	}
	return result, nil
}

func (e *Engine) storageIDIndex(ctx context.Context) (map[string]uint, error) {
	rows, err := e.catalog.GetStorages(ctx)
	if err != nil {
		return nil, fmt.Errorf("upload: load storages: %w", err)
	}
	idx := make(map[string]uint, len(rows))
	for _, r := range rows {
		idx[r.Token] = r.ID
	}
	return idx, nil
}

func (e *Engine) keyIDIndex(ctx context.Context) (map[string]uint, error) {
	rows, err := e.catalog.GetKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("upload: load keys: %w", err)
	}
	idx := make(map[string]uint, len(rows))
	for _, r := range rows {
		idx[r.Key] = r.ID
	}
	return idx, nil
}

type produceBlocksArgs struct {
	fileSize       int64
	blockSize      int64
	totalBlocks    int
	duplicateCount int
	encrypt        bool
	skip           map[int]bool
	chunkSize      int
	keyIDByMat     map[string]uint
	progress       *Progress
	out            chan<- replicaTask
}

// produceBlocks is the block producer: a lazy sequence over the file,
// reading block-size plaintext spans in order and emitting duplicate-count
// replica tasks per non-skipped block. Blocks already uploaded on a resumed
// file are read (to keep the stream offsets correct) but filtered out before
// any task reaches the dispatch channel.
func (e *Engine) produceBlocks(ctx context.Context, path string, a produceBlocksArgs) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("upload: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, int(a.blockSize))
	buf := make([]byte, a.blockSize)

	for number := 0; number < a.totalBlocks; number++ {
		n, readErr := io.ReadFull(r, buf)
		if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
			return fmt.Errorf("upload: read block %d: %w", number, readErr)
		}
		plaintext := append([]byte(nil), buf[:n]...)

		if a.skip[number] {
			continue
		}

		storages, err := e.balancer.AssignStorages(a.duplicateCount)
		if err != nil {
			return err
		}

		var chosenCipher cipher.Cipher
		var keyID *uint
		if a.encrypt {
			chosenCipher, err = e.balancer.AssignCipher()
			if err != nil {
				return err
			}
			id, ok := a.keyIDByMat[chosenCipher.Key()]
			if !ok {
				return ErrUnknownCipherKey
			}
			keyID = &id
		}

		totalChunks := chunksFor(len(plaintext), a.chunkSize)
		for dup := 0; dup < a.duplicateCount; dup++ {
			a.progress.init(number, dup, totalChunks)
			task := replicaTask{
				number:          number,
				duplicateNumber: dup,
				plaintext:       plaintext,
				storage:         storages[dup],
				cipher:          chosenCipher,
				keyID:           keyID,
				name:            balancer.NewName(),
			}
			select {
			case a.out <- task:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func chunksFor(size, chunkSize int) int {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	if size == 0 {
		return 1
	}
	return (size + chunkSize - 1) / chunkSize
}

func (e *Engine) worker(ctx context.Context, tasks <-chan replicaTask, outcomes chan<- replicaOutcome, progress *Progress) {
	for task := range tasks {
		size, err := e.uploadWithRetry(ctx, task, progress)
		select {
		case outcomes <- replicaOutcome{task: task, size: size, err: err}:
		case <-ctx.Done():
			return
		}
	}
}

// uploadWithRetry runs one block replica's upload, making up to RepeatCount
// attempts in total before giving up on this task. ErrObjectExists is not
// retried: a random name collision will not resolve itself.
func (e *Engine) uploadWithRetry(ctx context.Context, task replicaTask, progress *Progress) (int64, error) {
	payload := task.plaintext
	if task.cipher != nil {
		ciphertext, err := task.cipher.Encrypt(payload)
		if err != nil {
			return 0, fmt.Errorf("upload: encrypt block %d/%d: %w", task.number, task.duplicateNumber, err)
		}
		payload = ciphertext
	}

	var lastErr error
	for attempt := 1; attempt <= e.cfg.RepeatCount; attempt++ {
		progress.init(task.number, task.duplicateNumber, chunksFor(len(payload), e.cfg.ChunkSize))

		reader := newChunkReader(payload, e.cfg.ChunkSize, func(int) {
			progress.incChunk(task.number, task.duplicateNumber)
		})
		status, err := task.storage.UploadChunked(ctx, task.name, reader, int64(len(payload)), e.cfg.ChunkSize)
		if status == model.UploadOK {
			return int64(len(payload)), nil
		}

		lastErr = err
		if errors.Is(err, storage.ErrObjectExists) {
			break
		}
		logger.WarnCtx(ctx, "block replica upload failed, retrying",
			logger.BlockName(task.name), logger.Attempt(attempt), logger.MaxRetries(e.cfg.RepeatCount), logger.Err(err))
	}
	return 0, fmt.Errorf("upload: block %d/%d: %w", task.number, task.duplicateNumber, lastErr)
}

// collectOutcomes batches successful replica uploads into catalog writes —
// one commit per wave of completions rather than one per block — and
// returns the outcomes that failed so the caller can give them a second
// attempt instead of giving up on the first pass alone.
func (e *Engine) collectOutcomes(ctx context.Context, fileID uint, duplicateCount int, storageIDByToken map[string]uint, outcomes <-chan replicaOutcome) (*Result, []replicaOutcome, error) {
	const batchSize = 32

	result := &Result{}
	var failed []replicaOutcome
	batch := make([]catalog.Block, 0, batchSize)
	doneByNumber := make(map[int]int)
	completedNumbers := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := e.catalog.AddBlocks(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for outcome := range outcomes {
		if outcome.err != nil {
			failed = append(failed, outcome)
			continue
		}

		storageID := storageIDByToken[outcome.task.storage.Token()]
		batch = append(batch, catalog.Block{
			Number:          outcome.task.number,
			DuplicateNumber: outcome.task.duplicateNumber,
			Name:            outcome.task.name,
			Size:            outcome.size,
			StorageID:       storageID,
			FileID:          fileID,
			KeyID:           outcome.task.keyID,
		})
		doneByNumber[outcome.task.number]++
		if doneByNumber[outcome.task.number] == duplicateCount {
			completedNumbers++
		}

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, nil, err
			}
			if completedNumbers > 0 {
				if err := e.catalog.IncrementUploadedBlocks(ctx, fileID, completedNumbers); err != nil {
					return nil, nil, err
				}
				completedNumbers = 0
			}
		}
	}

	if err := flush(); err != nil {
		return nil, nil, err
	}
	if completedNumbers > 0 {
		if err := e.catalog.IncrementUploadedBlocks(ctx, fileID, completedNumbers); err != nil {
			return nil, nil, err
		}
	}

	return result, failed, nil
}

// retryFailed gives every failed outcome from a prior wave one further
// upload attempt (itself still subject to uploadWithRetry's own RepeatCount
// loop per task), dispatched through a fresh, right-sized worker pool, and
// reports whichever replicas are still failed afterward.
func (e *Engine) retryFailed(ctx context.Context, fileID uint, duplicateCount int, storageIDByToken map[string]uint, progress *Progress, failed []replicaOutcome) (*Result, []replicaOutcome, error) {
	tasks := make(chan replicaTask, len(failed))
	for _, f := range failed {
		tasks <- f.task
	}
	close(tasks)

	outcomes := make(chan replicaOutcome, len(failed))
	workerCount := e.cfg.ParallelNum
	if workerCount > len(failed) {
		workerCount = len(failed)
	}
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx, tasks, outcomes, progress)
		}()
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	return e.collectOutcomes(ctx, fileID, duplicateCount, storageIDByToken, outcomes)
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return checksum.Of(f)
}
