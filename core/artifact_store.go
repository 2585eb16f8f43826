package core

// ArtifactStore persists synthesized audio blobs addressed by file name.
// Implementations must be safe for concurrent use.
type ArtifactStore interface {
	Save(name string, data []byte) error
	Get(name string) ([]byte, error)
	List() ([]string, error)
	Delete(name string) error
}
