// Package download reconstructs a replicated file from the catalog: for
// each logical block number it tries every surviving replica in stable
// order until one downloads and decrypts cleanly, then linearly reassembles
// the winners into the destination and verifies the whole-file checksum.
//
// Blocks download concurrently through a bounded worker pool, into a
// scratch directory, and are only merged into the final destination once
// every block has succeeded.
package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/marmos91/cloudraid/internal/logger"
	"github.com/marmos91/cloudraid/pkg/catalog"
	"github.com/marmos91/cloudraid/pkg/checksum"
	"github.com/marmos91/cloudraid/pkg/cipher"
	"github.com/marmos91/cloudraid/pkg/model"
	"github.com/marmos91/cloudraid/pkg/storage"
)

// Config tunes the download engine's worker pool.
type Config struct {
	// ParallelNum bounds the number of block groups downloaded at once.
	ParallelNum int
	// ChunkSize is the read size passed to Storage.DownloadChunked.
	ChunkSize int
}

func (c Config) withDefaults() Config {
	if c.ParallelNum <= 0 {
		c.ParallelNum = 4
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 64 * 1024
	}
	return c
}

// Options configures one Download call.
type Options struct {
	// Filename is the catalog file to reconstruct.
	Filename string
	// Destination is the output path. Defaults to Filename in the current
	// directory. If it already exists, "(NEW)" is appended instead of
	// overwriting it.
	Destination string
	// TempDir holds one file per downloaded block replica, named by its
	// catalog object name. The caller owns cleaning it up.
	TempDir string
}

// Result describes a completed download.
type Result struct {
	Filename    string
	Destination string
	TotalBlocks int
}

// Engine runs the download pipeline against a fixed set of storages and
// ciphers, resolving every Block.KeyID it encounters against the ciphers
// supplied here.
type Engine struct {
	catalog  *catalog.Catalog
	storages []storage.Storage
	ciphers  []cipher.Cipher
	cfg      Config

	mu       sync.Mutex
	progress *Progress

	keyMu       sync.Mutex
	cipherByKey map[uint]cipher.Cipher
}

// New builds a download engine. storages and ciphers are the live adapters
// a Block's StorageID/KeyID are resolved against; they need not be the
// same instances the balancer used to write the file, only configured with
// the same tokens and key material.
func New(cat *catalog.Catalog, storages []storage.Storage, ciphers []cipher.Cipher, cfg Config) *Engine {
	return &Engine{
		catalog:     cat,
		storages:    storages,
		ciphers:     ciphers,
		cfg:         cfg.withDefaults(),
		cipherByKey: make(map[uint]cipher.Cipher),
	}
}

// Progress returns a snapshot of every block group's current transfer
// progress. Safe to call concurrently with an in-flight Download.
func (e *Engine) Progress() []BlockProgress {
	e.mu.Lock()
	p := e.progress
	e.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Snapshot()
}

type groupOutcome struct {
	number    int
	blockName string
	err       error
}

// Download reconstructs opts.Filename at opts.Destination via opts.TempDir.
func (e *Engine) Download(ctx context.Context, opts Options) (*Result, error) {
	file, err := e.catalog.GetFileByFilename(ctx, opts.Filename)
	if err != nil {
		return nil, err
	}

	grouped, err := e.catalog.GetBlocksGroupedByNumber(ctx, file.ID)
	if err != nil {
		return nil, err
	}
	for number := 0; number < file.TotalBlocks; number++ {
		if len(grouped[number]) == 0 {
			return nil, fmt.Errorf("%w: block %d has no replicas", catalog.ErrCatalogCorrupt, number)
		}
	}

	storageByID, err := e.storageIndexByID(ctx)
	if err != nil {
		return nil, err
	}

	destination := opts.Destination
	if destination == "" {
		destination = file.Filename
	}
	if _, err := os.Stat(destination); err == nil {
		destination += "(NEW)"
	}

	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	progress := newProgress()
	e.mu.Lock()
	e.progress = progress
	e.mu.Unlock()

	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	numbers := make(chan int)
	outcomes := make(chan groupOutcome)

	var workers sync.WaitGroup
	for i := 0; i < e.cfg.ParallelNum; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for number := range numbers {
				name, err := e.downloadGroup(groupCtx, grouped[number], storageByID, tempDir, progress)
				select {
				case outcomes <- groupOutcome{number: number, blockName: name, err: err}:
				case <-groupCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(numbers)
		for number := 0; number < file.TotalBlocks; number++ {
			select {
			case numbers <- number:
			case <-groupCtx.Done():
				return
			}
		}
	}()

	go func() {
		workers.Wait()
		close(outcomes)
	}()

	winners := make([]string, file.TotalBlocks)
	var firstErr error
	for outcome := range outcomes {
		if outcome.err != nil {
			if firstErr == nil {
				firstErr = outcome.err
				cancel()
			}
			continue
		}
		winners[outcome.number] = outcome.blockName
	}
	if firstErr != nil {
		return nil, firstErr
	}

	if err := e.reassemble(destination, tempDir, winners, file.Checksum); err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "download complete", logger.Filename(file.Filename), logger.Size(file.Size))
	return &Result{Filename: file.Filename, Destination: destination, TotalBlocks: file.TotalBlocks}, nil
}

func (e *Engine) storageIndexByID(ctx context.Context) (map[uint]storage.Storage, error) {
	rows, err := e.catalog.GetStorages(ctx)
	if err != nil {
		return nil, err
	}
	byToken := make(map[string]storage.Storage, len(e.storages))
	for _, s := range e.storages {
		byToken[s.Token()] = s
	}
	byID := make(map[uint]storage.Storage, len(rows))
	for _, row := range rows {
		if s, ok := byToken[row.Token]; ok {
			byID[row.ID] = s
		}
	}
	return byID, nil
}

// resolveCipher maps a Block's KeyID back to the cipher whose Key() equals
// that id's catalog key material, caching the result per engine instance.
func (e *Engine) resolveCipher(ctx context.Context, keyID uint) (cipher.Cipher, error) {
	e.keyMu.Lock()
	defer e.keyMu.Unlock()
	if c, ok := e.cipherByKey[keyID]; ok {
		return c, nil
	}
	row, err := e.catalog.GetKeyByID(ctx, keyID)
	if err != nil {
		return nil, err
	}
	for _, c := range e.ciphers {
		if c.Key() == row.Key {
			e.cipherByKey[keyID] = c
			return c, nil
		}
	}
	return nil, ErrUnresolvedKey
}

func chunksFor(size, chunkSize int64) int {
	if size == 0 {
		return 1
	}
	return int((size + chunkSize - 1) / chunkSize)
}

// downloadGroup tries every replica of one block number in stable catalog
// order (the order GetBlocksGroupedByNumber returns them in) until one
// downloads and, if encrypted, decrypts cleanly. It writes the winning
// replica's plaintext to <tempDir>/<name> and returns that name.
func (e *Engine) downloadGroup(ctx context.Context, replicas []catalog.Block, storageByID map[uint]storage.Storage, tempDir string, progress *Progress) (string, error) {
	number := replicas[0].Number
	for _, replica := range replicas {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		stor, ok := storageByID[replica.StorageID]
		if !ok {
			logger.WarnCtx(ctx, "download: unknown storage for replica", logger.BlockNumber(number), logger.BlockName(replica.Name))
			continue
		}

		progress.init(number, chunksFor(replica.Size, int64(e.cfg.ChunkSize)))
		var buf bytes.Buffer
		cw := newChunkCountingWriter(&buf, func(int) { progress.incChunk(number) })
		_, status, err := stor.DownloadChunked(ctx, replica.Name, cw, e.cfg.ChunkSize)
		if err != nil || status != model.DownloadOK {
			logger.WarnCtx(ctx, "download: replica failed, advancing", logger.BlockNumber(number), logger.BlockName(replica.Name), logger.Err(err))
			continue
		}

		plaintext := buf.Bytes()
		if replica.KeyID != nil {
			c, err := e.resolveCipher(ctx, *replica.KeyID)
			if err != nil {
				logger.WarnCtx(ctx, "download: cannot resolve cipher, advancing", logger.BlockNumber(number), logger.Err(err))
				continue
			}
			plaintext, err = c.Decrypt(plaintext)
			if err != nil {
				logger.WarnCtx(ctx, "download: decrypt failed, advancing", logger.BlockNumber(number), logger.Err(err))
				continue
			}
		}

		path := filepath.Join(tempDir, replica.Name)
		if err := os.WriteFile(path, plaintext, 0o644); err != nil {
			return "", fmt.Errorf("write temp block %d: %w", number, err)
		}
		return replica.Name, nil
	}
	return "", fmt.Errorf("%w: block %d", ErrBlockDownloadFailed, number)
}

// reassemble concatenates the winning replica files, in block_number
// order, into destination while hashing the result, then verifies it
// against the catalog's stored checksum.
func (e *Engine) reassemble(destination, tempDir string, winners []string, wantChecksum string) error {
	out, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer out.Close()

	hasher := checksum.NewWriter()
	dest := io.MultiWriter(out, hasher)

	for _, name := range winners {
		if err := copyBlockFile(dest, tempDir, name); err != nil {
			return err
		}
	}

	if hasher.Sum() != wantChecksum {
		return fmt.Errorf("%w: want %s got %s", ErrChecksumMismatch, wantChecksum, hasher.Sum())
	}
	return nil
}

func copyBlockFile(dest io.Writer, tempDir, name string) error {
	src, err := os.Open(filepath.Join(tempDir, name))
	if err != nil {
		return fmt.Errorf("open temp block %s: %w", name, err)
	}
	defer src.Close()
	if _, err := io.Copy(dest, src); err != nil {
		return fmt.Errorf("copy temp block %s: %w", name, err)
	}
	return nil
}
