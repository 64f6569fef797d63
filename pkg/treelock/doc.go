/*
Package treelock applies envelope encryption across whole directory trees.

EncryptTree derives one key per operation and seals every regular file under
the source root with it, each under a fresh nonce, mirroring the relative
directory structure under the destination root and appending ".encrypted" to
file names. DecryptTree walks the containers back to plaintext, stripping
the suffix.

Unlike the single-file operations, a tree operation is best-effort: a file
that cannot be read, decrypted, or written is recorded in the Report and the
walk moves on. Callers inspect the report and may re-run on the failed
subset. Only a failure to derive the shared key aborts the operation.
*/
package treelock
