package catalog

// Storage is a registered cloud backend: its catalog token and adapter
// type. Capacity (UsedBytes/TotalBytes) is refreshed live via the adapter
// and never persisted, so it isn't part of this row.
type Storage struct {
	ID    uint   `gorm:"primaryKey"`
	Token string `gorm:"uniqueIndex;not null"`
	Type  string `gorm:"not null"`

	UsedBytes  int64 `gorm:"-"`
	TotalBytes int64 `gorm:"-"`
}

func (Storage) TableName() string { return "storages" }

// Key is a symmetric cipher passphrase available to encrypt uploaded files.
// The material itself is the unique identity — there is no separate
// display name.
type Key struct {
	ID  uint   `gorm:"primaryKey"`
	Key string `gorm:"uniqueIndex;not null"`
}

func (Key) TableName() string { return "keys" }

// File is one replicated file's catalog entry: its name, total size, block
// layout, and upload progress. UploadedBlocks reaching TotalBlocks marks the
// file complete; resumable uploads skip a block once its Block rows already
// number DuplicateCount.
type File struct {
	ID             uint   `gorm:"primaryKey"`
	Filename       string `gorm:"uniqueIndex;not null"`
	Size           int64  `gorm:"not null"`
	TotalBlocks    int    `gorm:"not null"`
	UploadedBlocks int    `gorm:"not null;default:0"`
	Checksum       string `gorm:"not null"` // hex SHA-1 of the plaintext
	BlockSize      int64  `gorm:"not null"`
	DuplicateCount int    `gorm:"not null"`
	Encrypted      bool   `gorm:"not null;default:false"`
}

func (File) TableName() string { return "files" }

// Block is one physical replica of one logical block: which file it
// belongs to, its sequence number and replica index, its remote object
// name, which storage holds it, and (when its file is encrypted) which key
// enciphered it. Different blocks of the same file may carry different
// keys, since the balancer assigns a cipher per block independently; all
// replicas of one block share that block's key.
// KeyID lives on Block rather than File because the encrypted-file
// invariant — a non-null key when encryption is on — is really a property
// of each replica, not of the file as a whole.
type Block struct {
	ID              uint   `gorm:"primaryKey"`
	Number          int    `gorm:"not null;index:idx_block_file_number"`
	DuplicateNumber int    `gorm:"not null"`
	Name            string `gorm:"not null"`
	Size            int64  `gorm:"not null"`
	StorageID       uint   `gorm:"not null"`
	FileID          uint   `gorm:"not null;index:idx_block_file_number"`
	KeyID           *uint
}

func (Block) TableName() string { return "blocks" }

// AllModels returns every model for AutoMigrate.
func AllModels() []any {
	return []any{
		&Storage{},
		&Key{},
		&File{},
		&Block{},
	}
}
