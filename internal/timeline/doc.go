// Package timeline joins encoded segments into the final video with the
// ffmpeg concat demuxer and extracts a JPEG thumbnail from the result.
package timeline
