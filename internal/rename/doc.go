// Package rename rewrites Plex episode titles from the names of the files
// backing them.
//
// RenameByFilename walks a show (optionally a single season), derives each
// episode's title from its first media part's base name, and locks the new
// title on the server so agent refreshes leave it alone.
package rename
