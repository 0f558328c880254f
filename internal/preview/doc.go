// Package preview turns an image's natural dimensions and the panel's layout
// settings into the height a preview is rendered at.
//
// The computation has three inputs that change independently: the natural
// size of the file (resolved asynchronously through a Resolver), the width of
// the container the preview is drawn in, and the sizing Options. Sizer.Compute
// is a pure function of those inputs. Tracker holds the latest value of each
// and recomputes, debounced, whenever one of them changes.
package preview
