// Package imaging provides the photo operations behind the measurement
// workflow: loading photos with EXIF auto-orientation, zooming around a point
// for precise landmark placement, and rendering the landmark overlay.
//
// # Coordinate System
//
// Landmarks are exchanged in normalized coordinates: (0,0) is the top-left
// corner of the displayed photo and (1,1) the bottom-right, with Y increasing
// downward. Pixel coordinates appear only inside this package, where they are
// 0-based and, for regions, (x1,y1) inclusive and (x2,y2) exclusive.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Zoom and Annotate never
// modify their input image and can be called concurrently.
//
// # Output
//
// Zoom and Annotate return base64-encoded PNG data with its MIME type, ready
// to be embedded in an MCP image content block.
//
// # Error Handling
//
// Functions return errors for:
//   - Zoom centres outside the unit square or out-of-range radius and size
//   - File I/O and decoding errors during photo loading
//   - Encoding errors during image output
//
// # Performance Considerations
//
// Photos from phone cameras are large. Annotate accepts a MaxSize to bound
// the rendered overlay, and cached photos should be evicted when a session
// closes.
package imaging
