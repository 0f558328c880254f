/*
Package filesystem reads local files for the intake command line with retry
logic for NFS stale file handle errors.

Files picked up from an NFS mount can fail with ESTALE while the server
revalidates its handles. ReadFile and Stat retry those failures with
exponential backoff and fail immediately on every other error.

	data, err := filesystem.ReadFile(path, filesystem.DefaultRetryConfig())

Expand turns a list of command line arguments into the regular files they
name. Directories are walked recursively, so passing a folder behaves like
dropping it onto the intake area. Hidden entries are skipped.

Default backoff is 50ms doubling up to 500ms over at most 3 retries.
*/
package filesystem
