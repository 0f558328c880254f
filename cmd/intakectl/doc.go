// Command intakectl checks local files against an intake policy without a
// running server.
//
// Usage:
//
//	intakectl [flags] path...
//
// Directories are walked recursively, skipping hidden entries, so a folder
// behaves like a folder drop. Every file is read, its MIME type taken from the extension or sniffed
// from its content, and the batch is partitioned exactly as the server
// would. Accepted images also get their preview geometry for the given
// container width.
//
// Output is a table when stdout is a terminal and JSON otherwise; -json
// forces JSON. The exit status is 0 when every file is accepted, 1 when any
// file is rejected and 2 on usage or I/O errors.
//
// With -record the batch is also stored in the intake ledger under
// DATABASE_DIR, so it shows up in the server's history.
package main
