// Package buffer provides row-major sample planes and a pool that hands
// them out zeroed, so full-size workspaces are reused from one raster pair
// to the next without leaking values between pairs.
package buffer
