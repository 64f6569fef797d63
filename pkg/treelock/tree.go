package treelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/encbox/encbox/pkg/envelope"
)

const (
	// EncryptedSuffix marks container files produced by EncryptTree.
	EncryptedSuffix = ".encrypted"
	// DecryptedSuffix is appended when stripping EncryptedSuffix would
	// collide with the source name.
	DecryptedSuffix = ".decrypted"

	dirPerm  = os.FileMode(0700)
	filePerm = os.FileMode(0600)
)

type config struct {
	fs      afero.Fs
	gen     *envelope.KeyGenerator
	workers int
}

type TreeOpt = func(*config) error

// WithFS substitutes the filesystem the operation reads and writes.
// Defaults to the OS filesystem.
func WithFS(fsys afero.Fs) TreeOpt {
	return func(cfg *config) error {
		if fsys == nil {
			return errors.New("nil filesystem")
		}
		cfg.fs = fsys
		return nil
	}
}

// WithKeyGenerator substitutes the key derivation parameters. Both sides of
// a round-trip must use the same parameters.
func WithKeyGenerator(gen *envelope.KeyGenerator) TreeOpt {
	return func(cfg *config) error {
		if gen == nil {
			return errors.New("nil key generator")
		}
		cfg.gen = gen
		return nil
	}
}

// WithWorkers processes files on up to n goroutines. Each file is sealed or
// opened independently under the shared key, so files only contend on the
// report. Key derivation still happens exactly once, before any file work.
func WithWorkers(n int) TreeOpt {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("workers must be at least 1, got %d", n)
		}
		cfg.workers = n
		return nil
	}
}

func newConfig(opts ...TreeOpt) (*config, error) {
	cfg := &config{
		fs:      afero.NewOsFs(),
		workers: 1,
	}
	gen, err := envelope.NewKeyGenerator()
	if err != nil {
		return nil, err
	}
	cfg.gen = gen
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// EncryptTree encrypts every regular file under srcRoot into the mirrored
// layout under destRoot, appending EncryptedSuffix to each file name. One
// salt is generated and one key derived for the whole operation; every file
// still gets a fresh nonce. Per-file failures are recorded in the report
// and do not stop the walk.
func EncryptTree(pass envelope.Passphrase, srcRoot, destRoot string, opts ...TreeOpt) (*Report, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	files, unwalkable, err := collectFiles(cfg.fs, srcRoot, func(string) bool { return true })
	if err != nil {
		return nil, err
	}

	salt, err := cfg.gen.GenerateSalt()
	if err != nil {
		return nil, err
	}
	key, err := cfg.gen.DeriveKey(pass, salt)
	if err != nil {
		return nil, err
	}
	defer key.Wipe()

	report := forEach(cfg, files, func(src string) FileResult {
		dest := filepath.Join(destRoot, relPath(srcRoot, src)) + EncryptedSuffix
		res := FileResult{Source: src, Dest: dest}
		res.Err = encryptFile(cfg.fs, key, salt, src, dest)
		return res
	})
	report.Failed = append(report.Failed, unwalkable...)
	return report, nil
}

// DecryptTree decrypts every *.encrypted file under srcRoot into the
// mirrored layout under destRoot, stripping the suffix. Each container
// carries its own salt; containers from one EncryptTree run share it, so
// the key is derived once and reused, while foreign salts just cost an
// extra derivation.
func DecryptTree(pass envelope.Passphrase, srcRoot, destRoot string, opts ...TreeOpt) (*Report, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	files, unwalkable, err := collectFiles(cfg.fs, srcRoot, func(path string) bool {
		return strings.HasSuffix(path, EncryptedSuffix)
	})
	if err != nil {
		return nil, err
	}

	ring := &keyring{gen: cfg.gen, pass: pass}
	defer ring.wipe()

	report := forEach(cfg, files, func(src string) FileResult {
		rel := relPath(srcRoot, src)
		if strings.HasSuffix(rel, EncryptedSuffix) {
			rel = strings.TrimSuffix(rel, EncryptedSuffix)
		} else {
			rel += DecryptedSuffix
		}
		res := FileResult{Source: src, Dest: filepath.Join(destRoot, rel)}
		res.Err = decryptFile(cfg.fs, ring, src, res.Dest)
		return res
	})
	report.Failed = append(report.Failed, unwalkable...)
	return report, nil
}

func encryptFile(fsys afero.Fs, key envelope.Key, salt envelope.Salt, src, dest string) error {
	data, err := afero.ReadFile(fsys, src)
	if err != nil {
		return err
	}
	nonce, err := envelope.GenerateNonce()
	if err != nil {
		return err
	}
	sealed, err := envelope.Seal(key, nonce, data)
	if err != nil {
		return err
	}
	out, err := envelope.Encode(salt, nonce, sealed)
	if err != nil {
		return err
	}
	return writeFile(fsys, dest, out)
}

func decryptFile(fsys afero.Fs, ring *keyring, src, dest string) error {
	data, err := afero.ReadFile(fsys, src)
	if err != nil {
		return err
	}
	c, err := envelope.Decode(data)
	if err != nil {
		return err
	}
	key, err := ring.keyFor(c.Salt)
	if err != nil {
		return err
	}
	plain, err := envelope.Open(key, c.Nonce, c.Ciphertext)
	if err != nil {
		return err
	}
	return writeFile(fsys, dest, plain)
}

func writeFile(fsys afero.Fs, dest string, data []byte) error {
	if err := fsys.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
		return err
	}
	return afero.WriteFile(fsys, dest, data, filePerm)
}

// collectFiles gathers regular files under root in sorted walk order.
// Directories are recursed into; symlinks and other irregular entries are
// excluded. Entries the walk cannot stat are reported as failures rather
// than aborting the operation; only an unusable root is fatal.
func collectFiles(fsys afero.Fs, root string, keep func(string) bool) ([]string, []FileResult, error) {
	info, err := fsys.Stat(root)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("not a directory: %s", root)
	}
	var (
		files      []string
		unwalkable []FileResult
	)
	walkErr := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			unwalkable = append(unwalkable, FileResult{Source: path, Err: err})
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if keep(path) {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, walkErr
	}
	return files, unwalkable, nil
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return rel
}

// forEach runs process over every file, sequentially by default or on a
// bounded goroutine group when workers > 1, and folds the results into a
// report.
func forEach(cfg *config, files []string, process func(string) FileResult) *Report {
	report := new(Report)
	if cfg.workers <= 1 {
		for _, f := range files {
			report.add(process(f))
		}
		return report
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(cfg.workers)
	for _, f := range files {
		f := f
		g.Go(func() error {
			res := process(f)
			mu.Lock()
			report.add(res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return report
}

// keyring caches derived keys by salt so a decrypt operation derives once
// for the shared salt instead of once per file. All keys are wiped when the
// operation completes.
type keyring struct {
	gen  *envelope.KeyGenerator
	pass envelope.Passphrase

	mu   sync.Mutex
	keys map[[envelope.SaltSize]byte]envelope.Key
}

func (r *keyring) keyFor(salt envelope.Salt) (envelope.Key, error) {
	var id [envelope.SaltSize]byte
	copy(id[:], salt)

	r.mu.Lock()
	defer r.mu.Unlock()
	if key, ok := r.keys[id]; ok {
		return key, nil
	}
	key, err := r.gen.DeriveKey(r.pass, salt)
	if err != nil {
		return nil, err
	}
	if r.keys == nil {
		r.keys = make(map[[envelope.SaltSize]byte]envelope.Key)
	}
	r.keys[id] = key
	return key, nil
}

func (r *keyring) wipe() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, key := range r.keys {
		key.Wipe()
		delete(r.keys, id)
	}
}
