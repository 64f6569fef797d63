/*
Package envelope encrypts byte payloads with a key derived from a
user-provided passphrase, producing self-describing containers that decrypt
with the passphrase alone.

# How it works:

A 32-byte salt is generated per operation and fed with the passphrase to
Argon2id to derive an AES-256 key. The payload is sealed with AES-GCM under
a fresh 12-byte nonce, and the magic bytes, format version, salt, nonce, and
ciphertext are laid out into a fixed container format. Decrypt reverses the
process: the salt embedded in the container re-derives the same key, and the
GCM tag is the sole integrity check.

Argon2id is memory and CPU hard, so brute-forcing the passphrase from a
captured container is impractical given a reasonable passphrase.

# General guidelines:
  - Derivation parameters are not recorded in the container. If you change
    them with GeneratorOpt functions, persist them with WriteProfile and use
    the same profile to decrypt.
  - Wrong passphrase and corrupted ciphertext both surface as
    ErrAuthentication. This is intentional; don't try to tell them apart.
  - Containers are processed whole in memory. Splitting very large files
    into multiple containers is the caller's concern.
  - Derived keys are wiped before Encrypt/Decrypt return. The passphrase
    buffer belongs to the caller; wipe it when you're done with it.
*/
package envelope
