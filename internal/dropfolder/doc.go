// Package dropfolder turns files copied into a watched directory into
// intake batches.
//
// A Watcher follows the directory tree with fsnotify. A file becomes
// pending when it is created or written and is delivered once every pending
// file has been quiet for the settle period, so a folder copied in one go
// arrives as a single drop batch. Hidden files and directories are ignored,
// as are files already present when the watcher starts.
//
// Watcher implements intake.EventSource:
//
//	w, err := dropfolder.New(dropfolder.Config{Dir: "/srv/incoming"})
//	unsubscribe := w.Subscribe(func(b intake.Batch) { engine.Submit(b) })
package dropfolder
