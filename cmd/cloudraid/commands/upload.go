package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marmos91/cloudraid/cmd/cloudraid/commands/cmdutil"
	"github.com/marmos91/cloudraid/internal/bytesize"
	"github.com/marmos91/cloudraid/pkg/balancer"
	"github.com/marmos91/cloudraid/pkg/storage"
	"github.com/marmos91/cloudraid/pkg/upload"
)

var (
	uploadBlockSize string
	uploadEncrypt   bool
	uploadDuplicate int
)

var uploadCmd = &cobra.Command{
	Use:   "upload <src> [<dst>]",
	Short: "Replicate a local file across the configured storages",
	Long: `Split <src> into blocks, replicate each block across distinct
storages, and record the placement in the catalog under <dst> (defaults to
the source file's base name).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadBlockSize, "block-size", "b", "", "override the balancer's automatic block size (e.g. 4MiB)")
	uploadCmd.Flags().BoolVarP(&uploadEncrypt, "encrypt", "e", false, "encrypt every block with a registered key")
	uploadCmd.Flags().IntVarP(&uploadDuplicate, "duplicate-count", "d", 1, "number of replicas per block")
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	src := args[0]
	dst := filepath.Base(src)
	if len(args) == 2 {
		dst = args[1]
	}

	cat, cfg, err := cmdutil.OpenCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	storages, err := cmdutil.BuildStorages(cfg)
	if err != nil {
		return err
	}
	ciphers, err := cmdutil.BuildCiphers(ctx, cat)
	if err != nil {
		return err
	}
	if uploadEncrypt && len(ciphers) == 0 {
		return fmt.Errorf("encryption requested but no keys are registered (run: cloudraid key generate)")
	}

	var blockSize int64
	if uploadBlockSize != "" {
		size, err := bytesize.ParseByteSize(uploadBlockSize)
		if err != nil {
			return fmt.Errorf("invalid --block-size: %w", err)
		}
		blockSize = int64(size)
	}

	byID, err := cmdutil.StorageIndexByID(ctx, cat, storages)
	if err != nil {
		return err
	}
	registered := make([]storage.Storage, 0, len(byID))
	for _, s := range byID {
		registered = append(registered, s)
	}

	bal := balancer.New(registered, ciphers, balancer.Bounds{
		MinBlockSize: int64(cfg.Balancer.MinBlockSize),
		MaxBlockSize: int64(cfg.Balancer.MaxBlockSize),
	})
	engine := upload.New(cat, bal, upload.Config{
		ParallelNum: cfg.Upload.ParallelNum,
		ChunkSize:   int(cfg.Upload.ChunkSize),
		RepeatCount: cfg.Upload.RepeatCount,
	})

	result, err := engine.Upload(ctx, src, upload.Options{
		Filename:       dst,
		BlockSize:      blockSize,
		DuplicateCount: uploadDuplicate,
		Encrypt:        uploadEncrypt,
	})
	if err != nil {
		return err
	}

	if result.Resumed {
		cmd.Printf("Resumed and completed upload of %q: %d blocks\n", dst, result.TotalBlocks)
	} else {
		cmd.Printf("Uploaded %q: %d blocks\n", dst, result.TotalBlocks)
	}
	return nil
}
