package key

import (
	"errors"
	"os"
	"path"

	"github.com/BurntSushi/toml"
)

// ErrAbsent is returned when the store can't find the requested object.
var ErrAbsent = errors.New("store can't find requested object")

const keyFileName = "pvss_id"
const privateExtension = ".private"
const publicExtension = ".public"
const rosterFileName = "roster.toml"
const transcriptFileName = "transcript.toml"

const filePerm = 0600

// Tomler represents any struct that can be (un)marshaled into/from toml format
type Tomler interface {
	TOML() interface{}
	FromTOML(i interface{}) error
	TOMLValue() interface{}
}

// Store abstracts the loading and saving of any configuration or
// cryptographic material used by the module. For the moment, only a file
// based store is implemented.
type Store interface {
	SaveKeyPair(p *Pair) error
	LoadKeyPair() (*Pair, error)
	SaveRoster(r *Roster) error
	LoadRoster() (*Roster, error)
	SaveTranscript(t Tomler) error
	LoadTranscript(t Tomler) error
}

// FileStore is a Store using the file system, all files living under a
// single base directory.
type FileStore struct {
	baseFolder     string
	privateKeyFile string
	publicKeyFile  string
	rosterFile     string
	transcriptFile string
}

// NewFileStore returns a file store rooted at the given folder, creating the
// folder if needed.
func NewFileStore(baseFolder string) (*FileStore, error) {
	if err := os.MkdirAll(baseFolder, 0740); err != nil {
		return nil, err
	}
	return &FileStore{
		baseFolder:     baseFolder,
		privateKeyFile: path.Join(baseFolder, keyFileName+privateExtension),
		publicKeyFile:  path.Join(baseFolder, keyFileName+publicExtension),
		rosterFile:     path.Join(baseFolder, rosterFileName),
		transcriptFile: path.Join(baseFolder, transcriptFileName),
	}, nil
}

// SaveKeyPair first saves the private key in a file with tight permissions
// and then saves the public part in another file.
func (f *FileStore) SaveKeyPair(p *Pair) error {
	if err := Save(f.privateKeyFile, p, true); err != nil {
		return err
	}
	return Save(f.publicKeyFile, p.Public, false)
}

// LoadKeyPair decodes the private key first, then the public part.
func (f *FileStore) LoadKeyPair() (*Pair, error) {
	p := new(Pair)
	if err := Load(f.privateKeyFile, p); err != nil {
		return nil, err
	}
	return p, Load(f.publicKeyFile, p.Public)
}

// SaveRoster stores the roster of the current run.
func (f *FileStore) SaveRoster(r *Roster) error {
	return Save(f.rosterFile, r, false)
}

// LoadRoster loads the roster of the current run.
func (f *FileStore) LoadRoster() (*Roster, error) {
	r := new(Roster)
	return r, Load(f.rosterFile, r)
}

// SaveTranscript stores an aggregated transcript. Transcripts are public
// material so no tight permissions are required.
func (f *FileStore) SaveTranscript(t Tomler) error {
	return Save(f.transcriptFile, t, false)
}

// LoadTranscript loads the stored transcript into t.
func (f *FileStore) LoadTranscript(t Tomler) error {
	return Load(f.transcriptFile, t)
}

// Save writes the given Tomler to the given path, with tight permissions if
// secure is set.
func Save(filePath string, t Tomler, secure bool) error {
	var fd *os.File
	var err error
	if secure {
		fd, err = createSecureFile(filePath)
	} else {
		fd, err = os.Create(filePath)
	}
	if err != nil {
		return err
	}
	defer fd.Close()
	return toml.NewEncoder(fd).Encode(t.TOML())
}

// Load reads the file at the given path into the given Tomler.
func Load(filePath string, t Tomler) error {
	tomlValue := t.TOMLValue()
	if _, err := toml.DecodeFile(filePath, tomlValue); err != nil {
		if os.IsNotExist(err) {
			return ErrAbsent
		}
		return err
	}
	return t.FromTOML(tomlValue)
}

// createSecureFile creates a file with tight permission rights, only
// readable and writable by the current user.
func createSecureFile(file string) (*os.File, error) {
	fd, err := os.Create(file)
	if err != nil {
		return nil, err
	}
	fd.Close()
	if err := os.Chmod(file, filePerm); err != nil {
		return nil, err
	}
	return os.OpenFile(file, os.O_RDWR, filePerm)
}
