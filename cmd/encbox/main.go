package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/docker/go-units"
	flag "github.com/spf13/pflag"

	"github.com/encbox/encbox/cmd/internal"
	"github.com/encbox/encbox/pkg/envelope"
	"github.com/encbox/encbox/pkg/treelock"
)

var version = "dev"

func main() {
	var (
		helpFlag    bool
		versionFlag bool
		yesFlag     bool
		output      string
		profilePath string
		workers     int
		kdfTime     uint32
		kdfMemory   uint32
		kdfLanes    uint8
	)
	flags := flag.NewFlagSet("encbox", flag.ContinueOnError)
	flags.BoolVarP(&helpFlag, "help", "h", false, "Prints this usage information.")
	flags.BoolVar(&versionFlag, "version", false, "Prints the encbox version.")
	flags.BoolVarP(&yesFlag, "yes", "y", false, "Overwrite existing outputs without asking.")
	flags.StringVarP(&output, "output", "o", "", "Output file or directory. Defaults to the input path with the '.encrypted' suffix appended (encrypt) or stripped (decrypt).")
	flags.StringVar(&profilePath, "kdf-profile", "", "Path to a key derivation profile written by 'encbox write-profile'. Both sides of a round trip must use the same profile.")
	flags.IntVarP(&workers, "workers", "w", 1, "Number of files to process concurrently in directory mode.")
	flags.Uint32Var(&kdfTime, "kdf-time", envelope.DefaultTimeCost, "Argon2id passes, used by write-profile only.")
	flags.Uint32Var(&kdfMemory, "kdf-memory", envelope.DefaultMemoryKiB, "Argon2id memory cost in KiB, used by write-profile only.")
	flags.Uint8Var(&kdfLanes, "kdf-lanes", envelope.DefaultParallelism, "Argon2id parallelism, used by write-profile only.")
	flags.Usage = func() {
		fmt.Printf(`
encbox encrypts files and directory trees with a key derived from a passphrase, and decrypts them with the same passphrase alone.
Every encrypted file is a self-describing container carrying the salt and nonce it was encrypted with; there is no key file to manage or lose.

USAGE:  encbox COMMAND INPUT [flags]

COMMANDS:
    encrypt INPUT        Encrypt a single file.
    decrypt INPUT        Decrypt a single container file.
    encrypt-dir INPUT    Encrypt every regular file under a directory, preserving structure.
    decrypt-dir INPUT    Decrypt every *.encrypted file under a directory, preserving structure.
    write-profile PATH   Write a key derivation profile from the --kdf-* flags.
    tui                  Interactive terminal interface for the commands above.

FLAGS:
%s
NOTES:
    Directory encryption derives one key for the whole tree and is best-effort: files that fail are reported and skipped, the rest are still processed.
    A wrong passphrase and a corrupted container are deliberately indistinguishable.
`, flags.FlagUsages())
	}
	if len(os.Args) == 1 {
		flags.Usage()
		return
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		flags.Usage()
		internal.Fatal("Error parsing flags: %v", err)
	}
	if helpFlag {
		flags.Usage()
		return
	}
	if versionFlag {
		internal.Echo("encbox %s", version)
		return
	}
	if flags.NArg() == 0 {
		flags.Usage()
		internal.Fatal("Missing required COMMAND argument")
	}

	cmd, input := flags.Arg(0), flags.Arg(1)
	if cmd != "tui" && input == "" {
		flags.Usage()
		internal.Fatal("Missing required INPUT argument for %q", cmd)
	}

	switch cmd {
	case "encrypt":
		runFile(true, input, output, profilePath, yesFlag)
	case "decrypt":
		runFile(false, input, output, profilePath, yesFlag)
	case "encrypt-dir":
		runTree(true, input, output, profilePath, workers)
	case "decrypt-dir":
		runTree(false, input, output, profilePath, workers)
	case "write-profile":
		writeProfile(input, kdfTime, kdfMemory, kdfLanes)
	case "tui":
		runTUI(profilePath, workers)
	default:
		flags.Usage()
		internal.Fatal("Unknown command %q", cmd)
	}
}

// loadGenerator builds the key generator from a profile file, or the
// defaults when no profile is given.
func loadGenerator(profilePath string) (*envelope.KeyGenerator, error) {
	if profilePath == "" {
		return envelope.NewKeyGenerator()
	}
	f, err := os.Open(profilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open KDF profile: %w", err)
	}
	defer func() { _ = f.Close() }()
	gen, err := envelope.ReadProfile(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read KDF profile %s: %w", profilePath, err)
	}
	return gen, nil
}

func writeProfile(path string, timeCost, memoryKiB uint32, lanes uint8) {
	gen, err := envelope.NewKeyGenerator(
		envelope.SetTimeCost(timeCost),
		envelope.SetMemoryCost(memoryKiB),
		envelope.SetParallelism(lanes),
	)
	if err != nil {
		internal.Fatal("Invalid KDF parameters: %v", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		internal.Fatal("Failed to create profile file: %v", err)
	}
	defer func() { _ = f.Close() }()
	if err := gen.WriteProfile(f); err != nil {
		internal.Fatal("Failed to write profile: %v", err)
	}
	internal.Echo("Wrote KDF profile to %s", path)
}

// defaultOutPath maps an input path to its default output path: append the
// suffix when encrypting, strip it when decrypting, or mark the output as
// decrypted when there is nothing to strip.
func defaultOutPath(input string, encrypt bool) string {
	if encrypt {
		return input + treelock.EncryptedSuffix
	}
	if strings.HasSuffix(input, treelock.EncryptedSuffix) {
		return strings.TrimSuffix(input, treelock.EncryptedSuffix)
	}
	return input + treelock.DecryptedSuffix
}

func confirmOverwrite(path string, yes bool) {
	if yes {
		return
	}
	if _, err := os.Stat(path); err == nil {
		if !internal.Confirm("Output %q already exists. Overwrite?", path) {
			internal.Fatal("Aborted")
		}
	}
}

func runFile(encrypt bool, input, output, profilePath string, yes bool) {
	gen, err := loadGenerator(profilePath)
	if err != nil {
		internal.Fatal("%v", err)
	}
	if output == "" {
		output = defaultOutPath(input, encrypt)
	}
	confirmOverwrite(output, yes)

	data, err := os.ReadFile(input)
	if err != nil {
		internal.Fatal("Failed to read %s: %v", input, err)
	}

	pass, err := internal.ReadPassphrase(encrypt)
	if err != nil {
		internal.Fatal("%v", err)
	}
	defer internal.WipeBytes(pass)

	var result []byte
	if encrypt {
		result, err = envelope.EncryptWith(gen, pass, data)
	} else {
		result, err = envelope.DecryptWith(gen, pass, data)
	}
	if err != nil {
		switch {
		case errors.Is(err, envelope.ErrFormat):
			internal.Fatal("%s is not a valid encbox container: %v", input, err)
		case errors.Is(err, envelope.ErrAuthentication):
			internal.Fatal("Failed to decrypt %s: wrong passphrase or corrupted file", input)
		default:
			internal.Fatal("Operation failed: %v", err)
		}
	}

	if err := os.WriteFile(output, result, 0600); err != nil {
		internal.Fatal("Failed to write %s: %v", output, err)
	}
	internal.Echo("%s -> %s (%s)", input, output, units.HumanSize(float64(len(result))))
}

func runTree(encrypt bool, input, output, profilePath string, workers int) {
	gen, err := loadGenerator(profilePath)
	if err != nil {
		internal.Fatal("%v", err)
	}
	if output == "" {
		output = defaultOutPath(input, encrypt)
	}

	pass, err := internal.ReadPassphrase(encrypt)
	if err != nil {
		internal.Fatal("%v", err)
	}
	defer internal.WipeBytes(pass)

	opts := []treelock.TreeOpt{treelock.WithKeyGenerator(gen)}
	if workers > 1 {
		opts = append(opts, treelock.WithWorkers(workers))
	}

	var report *treelock.Report
	if encrypt {
		report, err = treelock.EncryptTree(pass, input, output, opts...)
	} else {
		report, err = treelock.DecryptTree(pass, input, output, opts...)
	}
	if err != nil {
		internal.Fatal("Directory operation failed: %v", err)
	}

	for _, res := range report.Failed {
		internal.Echo("FAILED (%s) %s: %v", res.Kind(), res.Source, res.Err)
	}
	internal.Echo("%s -> %s: %s", input, output, report)
	if !report.Ok() {
		os.Exit(1)
	}
}
