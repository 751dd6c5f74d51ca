// Package signvideo wraps the remote ISL video-synthesis service: generating
// a preview video from English text, promoting a preview to permanent
// storage, and best-effort cleanup of server-side temporary videos.
package signvideo
